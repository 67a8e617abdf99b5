package model

// Version of the provisioner, kept in lockstep with the proxy service.
const Version = "1.2.0"

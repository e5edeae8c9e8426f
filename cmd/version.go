package cmd

// Version of this service, overridden at build time
var Version = "dev"

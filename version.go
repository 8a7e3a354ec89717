package main

// Version is the relver CLI version.
var Version = "1.0.0"

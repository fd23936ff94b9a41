package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, invalid paths)
	ExitDataError   = 3 // Data error (duplicate keys, index corruption, malformed bib file)
	ExitQuit        = 4 // Fix pass aborted by the user
)

// Package commands implements the securexchat command line: profile setup,
// key provisioning and recovery, and sending and reading messages through a
// relay.
package commands

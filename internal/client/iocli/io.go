// Package iocli abstracts the terminal so commands can be tested without one.
package iocli

//go:generate moq -out io_mock.go . IO

// IO is the terminal a command talks to.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}

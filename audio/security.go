package audio

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// SplitArgs splits user-supplied extra encoder arguments into an argv
// slice without involving a shell.
func SplitArgs(raw string) ([]string, error) {
	args, err := shlex.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid argument syntax: %w", err)
	}
	return args, nil
}

// SanitizeArgs rejects arguments carrying shell metacharacters or an
// additional input flag.
func SanitizeArgs(args []string) error {
	for _, arg := range args {
		if strings.ContainsAny(arg, "|&;`$()<>") {
			return fmt.Errorf("disallowed character found in argument: %s", arg)
		}
		if arg == "-i" {
			return fmt.Errorf("extra arguments must not add inputs: %s", arg)
		}
	}
	return nil
}

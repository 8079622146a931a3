package cli

import "strings"

// ownPrefix marks the supervisor's own options. ssh has no long options,
// so nothing it accepts can start with it.
const ownPrefix = "--autossh-"

// SplitArgs separates the supervisor's own --autossh-* options from the
// arguments forwarded to ssh. Forwarded arguments keep their order. A bare
// "--" stops the scan: it and everything after it are forwarded as-is.
// takesValue reports whether an option (named without the leading dashes)
// consumes the following token when not written as --name=value.
func SplitArgs(argv []string, takesValue func(name string) bool) (own, forward []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			forward = append(forward, argv[i:]...)
			break
		}
		if !strings.HasPrefix(arg, ownPrefix) {
			forward = append(forward, arg)
			continue
		}

		own = append(own, arg)
		name := strings.TrimPrefix(arg, "--")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue != nil && takesValue(name) && i+1 < len(argv) {
			i++
			own = append(own, argv[i])
		}
	}
	return own, forward
}

// flagValue returns the last value given for the own option name.
func flagValue(own []string, name string) string {
	value := ""
	for i := 0; i < len(own); i++ {
		arg := own[i]
		switch {
		case arg == "--"+name && i+1 < len(own):
			value = own[i+1]
			i++
		case strings.HasPrefix(arg, "--"+name+"="):
			value = strings.TrimPrefix(arg, "--"+name+"=")
		}
	}
	return value
}

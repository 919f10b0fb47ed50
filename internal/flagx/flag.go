// Package flagx helps several independent flag sets share one command line.
package flagx

import (
	"flag"
	"io"
	"slices"
	"strings"
)

// FilterArgs keeps only the flags named in allowed, in their original order.
//
// Both "-f value" and "-f=value" forms are understood. A separate value is
// taken only when the next argument does not start with "-". The result is
// never nil.
func FilterArgs(args []string, allowed []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, hasValue := strings.Cut(arg, "="); hasValue && strings.HasPrefix(arg, "-") {
			if slices.Contains(allowed, name) {
				out = append(out, arg)
			}
			continue
		}

		if !slices.Contains(allowed, arg) {
			continue
		}

		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}

	return out
}

// ConfigFilePath returns the JSON config path given by -c or -config in args,
// or "" when neither is present. When both appear, the last one wins.
func ConfigFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}

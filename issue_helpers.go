package babik

import (
	"strings"

	"github.com/reoring/babik/i18n"
)

// IssueAt creates an Issue at the given path with provided code and params.
// The message is taken from the current i18n Translator.
func IssueAt(path, code string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: i18n.T(code, params), Params: params}
}

// NewIssues is a convenience for field specs returning a single issue at the
// value root ("/"); the pipeline rebases it onto the attribute name.
func NewIssues(code string, params map[string]any) Issues {
	return Issues{IssueAt("/", code, params)}
}

// Pointer renders an attribute name as a JSON Pointer (RFC6901).
func Pointer(name string) string {
	return "/" + strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

// rebaseIssues moves issues produced at a value root under the attribute name.
func rebaseIssues(err error, name string) Issues {
	base := Pointer(name)
	iss, ok := AsIssues(err)
	if !ok {
		return Issues{{Path: base, Code: CodeInvalidType, Message: err.Error(), Cause: err}}
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		switch {
		case it.Path == "" || it.Path == "/":
			it.Path = base
		case strings.HasPrefix(it.Path, base+"/") || it.Path == base:
		default:
			it.Path = base + it.Path
		}
		out = append(out, it)
	}
	return out
}

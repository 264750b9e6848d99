package config

import "fmt"

// PullTarget selects what a pull writes to disk: a bare markdown file or a
// zip bundle carrying the document together with its metadata and images.
type PullTarget string

const (
	PullTargetMarkdown PullTarget = "markdown"
	PullTargetBundle   PullTarget = "bundle"
)

// PullTargetNames returns a list of possible string values of PullTarget.
func PullTargetNames() []string {
	return []string{string(PullTargetMarkdown), string(PullTargetBundle)}
}

func ParsePullTarget(name string) (PullTarget, error) {
	switch PullTarget(name) {
	case PullTargetMarkdown, PullTargetBundle:
		return PullTarget(name), nil
	}
	return "", fmt.Errorf("%s is not a valid PullTarget", name)
}

func (t PullTarget) String() string {
	return string(t)
}

func (t PullTarget) Ext() string {
	switch t {
	case PullTargetMarkdown:
		return ".md"
	case PullTargetBundle:
		return ".zip"
	default:
		// this should never happen
		panic("unsupported pull target requested")
	}
}

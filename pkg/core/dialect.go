package core

import "strings"

// IdentifierQuoting describes how a dialect delimits identifiers. A closing
// delimiter inside a name is written as EscapedClose.
type IdentifierQuoting struct {
	Open         string
	Close        string
	EscapedClose string
}

// Quote delimits name, escaping any closing delimiter it contains.
func (q IdentifierQuoting) Quote(name string) string {
	if q.Close != "" {
		name = strings.ReplaceAll(name, q.Close, q.EscapedClose)
	}
	return q.Open + name + q.Close
}

// Package protocol owns the IRC wire contract: the Message value type, the
// line parser and the line encoder.
//
// Ownership boundary:
// - message model (tags, prefix, command, params) and structural equality
// - recursive-descent parser for RFC 1459 lines with IRCv3 message tags
// - encoder, tag escaping and the named command constructors
//
// Wire format:
//
//	[@tags ][:prefix ]command[ param]*[ :trailing]CRLF
//
// Tag values use the escape table space<->\s, CR<->\r, LF<->\n, \<->\\ and
// ;<->\: in both directions.
package protocol

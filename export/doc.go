// Package export renders decoded documents as C source, JSON, binary, WISCE
// text or WAV.
//
// C output is produced from named text/template templates kept in an
// embedded YAML file. The templates are parsed once per process and run with
// missingkey=error.
package export

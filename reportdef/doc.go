// Package reportdef renders the DV360 report definitions used by the
// pipeline.
//
// A definition is a JSON text/template holding a Bid Manager v2 Query. The
// only template data is the partner list, expanded into one FILTER_PARTNER
// entry per partner:
//
//	defs, _ := reportdef.Load("")
//	body, err := defs.Expand(reportdef.Advertisers, []string{"1", "2"})
//
// Built-in templates are embedded in the binary. Load with a directory to
// replace any of them with "<name>.json.tmpl" files from disk.
package reportdef

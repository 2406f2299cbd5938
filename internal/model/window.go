package model

// Window is one entry of the view server's LIST response.
type Window struct {
	Hash  string `yaml:"hash"  json:"hash"`
	Class string `yaml:"class" json:"class"`
}

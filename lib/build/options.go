package build

// Options controls page emission.
type Options struct {
	// Minify compresses the client script. Markup is never minified:
	// collapsing whitespace would move text nodes the client pass binds by
	// position.
	Minify bool `yaml:"minify"`

	// Write saves the page to Outfile (and client assets next to it)
	// instead of only returning it.
	Write   bool   `yaml:"write"`
	Outfile string `yaml:"outfile"`
}

// DefaultOptions returns the defaults: minified, not written.
func DefaultOptions() Options {
	return Options{Minify: true}
}

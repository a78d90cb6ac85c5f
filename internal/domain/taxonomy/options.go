package taxonomy

// DefaultVersion is the schema version stamped on fitted taxonomies.
const DefaultVersion = "v1"

// Option applies a configuration option to Fit or New.
type Option func(*Taxonomy)

// WithVersion sets the schema version. Different versions never share a fingerprint.
func WithVersion(version string) Option {
	return func(t *Taxonomy) {
		if version != "" {
			t.version = version
		}
	}
}

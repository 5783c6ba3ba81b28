//go:build !linux

package trigger

// DetectMedium cannot tell link types apart on this platform.
func DetectMedium() Medium {
	return MediumUnknown
}

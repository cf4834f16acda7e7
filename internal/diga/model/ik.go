package model

import "strings"

// IKPrefix is the textual prefix distinguishing a prefixed institution
// identifier from its bare numeric form.
const IKPrefix = "IK"

// TestCodePrefix marks a Freischaltcode issued for end-to-end testing
// against insurer test systems rather than a real prescription.
const TestCodePrefix = "77AAAAAAAAAAAAAA"

// IKWithoutPrefix returns the bare numeric form of an IK number. The
// transformation is lossless: applying it to an already bare IK returns the
// IK unchanged.
func IKWithoutPrefix(ik string) string {
	return strings.TrimPrefix(ik, IKPrefix)
}

// IKWithPrefix returns the prefixed display form of an IK number. Serialized
// documents always carry the bare form; this is the inverse normalization for
// configuration and display.
func IKWithPrefix(ik string) string {
	if strings.HasPrefix(ik, IKPrefix) {
		return ik
	}
	return IKPrefix + ik
}

// IsTestCode reports whether a Freischaltcode is a test code. The insurer
// code-validation service routes test codes to the TDFC_0 process instead of
// the production EDFC_0 process.
func IsTestCode(code string) bool {
	return strings.HasPrefix(code, TestCodePrefix)
}

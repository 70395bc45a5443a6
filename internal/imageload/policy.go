package imageload

import (
	"fmt"

	"bookpublish/internal/entity"
)

// Policy decides what a generator does with an image that failed to load.
type Policy string

const (
	// PolicyPlaceholder draws a neutral placeholder and records a warning.
	PolicyPlaceholder Policy = "placeholder"
	// PolicyFail fails the whole format with the ImageLoadError.
	PolicyFail Policy = "fail"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyPlaceholder:
		return PolicyPlaceholder, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", &entity.InvalidInputError{Field: "image_policy", Reason: fmt.Sprintf("unknown policy %q", s)}
	}
}

// Resolve looks ref up in set. Under PolicyPlaceholder a failure yields
// ok=false and a warning; under PolicyFail it yields the error.
func (p Policy) Resolve(set *Set, ref, what string) (img Image, ok bool, warning string, err error) {
	img, lookupErr := set.Get(ref)
	if lookupErr == nil {
		return img, true, "", nil
	}
	if p == PolicyFail {
		return Image{}, false, "", lookupErr
	}
	return Image{}, false, fmt.Sprintf("%s: %v; placeholder used", what, lookupErr), nil
}

package m3u8

// Selector picks the rendition a master playlist should be followed through.
type Selector interface {
	Select(renditions []Rendition, base string) (string, error)
}

// FirstRendition always follows the first-listed rendition, regardless of
// declared bandwidth or codecs.
type FirstRendition struct{}

func (FirstRendition) Select(renditions []Rendition, base string) (string, error) {
	return SelectFirst(renditions, base)
}

// SelectFirst resolves the first rendition's URI against base
func SelectFirst(renditions []Rendition, base string) (string, error) {
	if len(renditions) == 0 {
		return "", ErrNoRenditions
	}
	return ResolveURI(base, renditions[0].URI)
}

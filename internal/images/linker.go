package images

// Linker resolves hashes and turns hits into image server URLs.
type Linker struct {
	Resolver    *Resolver
	ContentRoot string
	// BaseURL is the image server's public URL. No URLs are produced
	// when it is empty.
	BaseURL string
}

func (l Linker) Link(hash string) (Location, string) {
	loc := l.Resolver.Resolve(hash)
	if !loc.Found() || l.BaseURL == "" {
		return loc, ""
	}
	u, err := URL(l.BaseURL, l.ContentRoot, loc.Path)
	if err != nil {
		return loc, ""
	}
	return loc, u
}

package reader

// PageAudio holds the synthesized audio for one page.
// The zero value is the empty placeholder recorded when a page's text was
// empty or its synthesis failed.
type PageAudio struct {
	// Data contains the encoded audio bytes.
	Data []byte

	// ContentType is the MIME type of the audio (e.g. audio/mpeg).
	ContentType string
}

// IsEmpty reports whether this slot is the empty placeholder.
func (a *PageAudio) IsEmpty() bool {
	return len(a.Data) == 0
}

// Release drops the audio buffer. The slot becomes the empty placeholder.
func (a *PageAudio) Release() {
	a.Data = nil
	a.ContentType = ""
}

// releaseAll releases every slot in the array.
func releaseAll(audio []PageAudio) {
	for i := range audio {
		audio[i].Release()
	}
}

package popularity

import (
	"math/rand"
	"strings"
)

// Catalogue serves the reference songs bundled with the model.
type Catalogue struct {
	songs []SampleSong
}

func NewCatalogue(songs []SampleSong) *Catalogue {
	return &Catalogue{songs: songs}
}

func (c *Catalogue) Len() int { return len(c.songs) }

// Sample returns up to n distinct songs in random order.
func (c *Catalogue) Sample(n int, rng *rand.Rand) []SampleSong {
	if n > len(c.songs) {
		n = len(c.songs)
	}
	if n <= 0 {
		return []SampleSong{}
	}
	out := make([]SampleSong, n)
	for i, j := range rng.Perm(len(c.songs))[:n] {
		out[i] = c.songs[j]
	}
	return out
}

// Find looks a song up by artist and track name, ignoring case.
func (c *Catalogue) Find(artist, track string) (*SampleSong, bool) {
	for i := range c.songs {
		s := &c.songs[i]
		if strings.EqualFold(s.ArtistName, artist) && strings.EqualFold(s.TrackName, track) {
			song := *s
			return &song, true
		}
	}
	return nil, false
}

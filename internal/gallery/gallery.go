// Package gallery derives the gallery and slideshow views from the static image list.
package gallery

import (
	"math/rand/v2"
	"time"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/content"
)

// All selects one rotating representative per category instead of filtering.
const All = "all"

const (
	// DefaultInterval is how often the "all" view advances each category.
	DefaultInterval = 3500 * time.Millisecond
	// SlideInterval is the about-section slideshow cadence.
	SlideInterval = 4 * time.Second
)

// Categories returns the distinct category keys in first-seen order.
func Categories(images []content.GalleryImage) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, img := range images {
		if _, ok := seen[img.Category]; ok {
			continue
		}
		seen[img.Category] = struct{}{}
		out = append(out, img.Category)
	}
	return out
}

// Filter returns the images whose category equals category. All returns every image.
func Filter(images []content.GalleryImage, category string) []content.GalleryImage {
	if category == All || category == "" {
		return append([]content.GalleryImage(nil), images...)
	}
	out := make([]content.GalleryImage, 0, len(images))
	for _, img := range images {
		if img.Category == category {
			out = append(out, img)
		}
	}
	return out
}

// Representatives picks exactly one image per distinct category. Within a
// category the pick advances by one for every tick, wrapping around.
func Representatives(images []content.GalleryImage, tick uint64) []content.GalleryImage {
	groups := map[string][]content.GalleryImage{}
	for _, img := range images {
		groups[img.Category] = append(groups[img.Category], img)
	}
	cats := Categories(images)
	out := make([]content.GalleryImage, 0, len(cats))
	for _, c := range cats {
		g := groups[c]
		out = append(out, g[tick%uint64(len(g))])
	}
	return out
}

// Tick converts wall time into a rotation counter for the given interval.
func Tick(now time.Time, interval time.Duration) uint64 {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ms := now.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms / interval.Milliseconds())
}

// View is the derived gallery state for one render.
type View struct {
	Category   string
	Categories []string
	Images     []content.GalleryImage
	Rotating   bool
}

// Build computes the view for category at now. Unknown categories yield no images.
func Build(images []content.GalleryImage, category string, now time.Time, interval time.Duration) View {
	if category == "" {
		category = All
	}
	v := View{
		Category:   category,
		Categories: Categories(images),
	}
	if category == All {
		v.Images = Representatives(images, Tick(now, interval))
		v.Rotating = true
		return v
	}
	v.Images = Filter(images, category)
	return v
}

// Shuffle returns a shuffled copy of paths (Fisher–Yates). A nil rng uses the global source.
func Shuffle(paths []string, rng *rand.Rand) []string {
	out := append([]string(nil), paths...)
	for i := len(out) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Slideshow is one independently shuffled image rotator.
type Slideshow struct {
	ID       string
	Images   []string
	Interval time.Duration
	Delay    time.Duration
}

// Slideshows builds n slideshows over paths, each with its own order and a staggered start.
func Slideshows(paths []string, n int, rng *rand.Rand) []Slideshow {
	out := make([]Slideshow, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Slideshow{
			ID:       "story-slideshow-" + string(rune('a'+i)),
			Images:   Shuffle(paths, rng),
			Interval: SlideInterval,
			Delay:    time.Duration(i) * SlideInterval / 2,
		})
	}
	return out
}

package ocr

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/patrickmn/go-cache"
)

// hashSize is the edge of the extended difference hash (32x32 bits).
const hashSize = 32

// Key identifies a preprocessed image in the Cache.
//
// Bucket is a perceptual hash and is shared by labels that differ only in a
// few glyphs. Digest covers the exact pixels and decides whether a bucket's
// entry belongs to this image.
type Key struct {
	Bucket string
	Digest [sha256.Size]byte
}

type cacheEntry struct {
	digest [sha256.Size]byte
	text   string
}

// Cache memoizes recognized text for preprocessed images, so re-uploads of
// the same label skip Tesseract. Each bucket holds the most recent image that
// hashed into it.
//
// A nil *Cache is valid and never hits.
type Cache struct {
	items *cache.Cache
}

// NewCache returns a cache whose entries expire after ttl. It returns nil when
// ttl is not positive, which disables caching.
func NewCache(ttl, cleanup time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{items: cache.New(ttl, cleanup)}
}

// KeyOf computes the cache key for img.
func KeyOf(img *image.Gray) (Key, error) {
	h, err := goimagehash.ExtDifferenceHash(img, hashSize, hashSize)
	if err != nil {
		return Key{}, fmt.Errorf("failed to hash image: %w", err)
	}
	return Key{Bucket: h.ToString(), Digest: pixelDigest(img)}, nil
}

// pixelDigest hashes the image size followed by its rows.
func pixelDigest(img *image.Gray) [sha256.Size]byte {
	b := img.Bounds()
	d := sha256.New()

	var size [16]byte
	binary.BigEndian.PutUint64(size[:8], uint64(b.Dx()))
	binary.BigEndian.PutUint64(size[8:], uint64(b.Dy()))
	d.Write(size[:])

	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		d.Write(img.Pix[off : off+b.Dx()])
	}

	var sum [sha256.Size]byte
	copy(sum[:], d.Sum(nil))
	return sum
}

// Get returns the text stored for key. An entry in the same bucket with a
// different digest is a miss.
func (c *Cache) Get(key Key) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.items.Get(key.Bucket)
	if !ok {
		return "", false
	}
	e, ok := v.(cacheEntry)
	if !ok || e.digest != key.Digest {
		return "", false
	}
	return e.text, true
}

// Set stores text under key with the default expiration, replacing whatever
// the bucket held.
func (c *Cache) Set(key Key, text string) {
	if c == nil {
		return
	}
	c.items.Set(key.Bucket, cacheEntry{digest: key.Digest, text: text}, cache.DefaultExpiration)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.items.ItemCount()
}

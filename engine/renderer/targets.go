package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

/** @brief The multisampled attachments a frame renders into before resolving. */
type TransientTargets struct {
	Color metadata.Texture
	Depth metadata.Texture
}

/**
 * @brief Caches one pair of memoryless multisample targets per in-flight
 * slot. An entry is reused as long as the resolve textures keep their size.
 */
type TransientTargetCache struct {
	device  metadata.Device
	entries []TransientTargets
}

func NewTransientTargetCache(device metadata.Device, slots int) *TransientTargetCache {
	return &TransientTargetCache{device: device, entries: make([]TransientTargets, slots)}
}

func (c *TransientTargetCache) GetOrCreate(slot int, resolveColor, resolveDepth metadata.Texture, sampleCount int) (TransientTargets, error) {
	entry := c.entries[slot]

	color, err := c.transientTarget(entry.Color, resolveColor, sampleCount)
	if err != nil {
		return TransientTargets{}, err
	}
	depth, err := c.transientTarget(entry.Depth, resolveDepth, sampleCount)
	if err != nil {
		if color != entry.Color {
			color.Release()
		}
		return TransientTargets{}, err
	}

	if entry.Color != nil && entry.Color != color {
		entry.Color.Release()
	}
	if entry.Depth != nil && entry.Depth != depth {
		entry.Depth.Release()
	}
	c.entries[slot] = TransientTargets{Color: color, Depth: depth}
	return c.entries[slot], nil
}

// Entry returns the cached targets of slot, zero when none were created yet.
func (c *TransientTargetCache) Entry(slot int) TransientTargets {
	return c.entries[slot]
}

func (c *TransientTargetCache) Release() {
	for i, e := range c.entries {
		if e.Color != nil {
			e.Color.Release()
		}
		if e.Depth != nil {
			e.Depth.Release()
		}
		c.entries[i] = TransientTargets{}
	}
}

func (c *TransientTargetCache) transientTarget(cached, resolve metadata.Texture, sampleCount int) (metadata.Texture, error) {
	if cached != nil && cached.Width() == resolve.Width() && cached.Height() == resolve.Height() {
		return cached, nil
	}
	texture, err := c.device.NewTexture(metadata.TextureDescriptor{
		PixelFormat: resolve.PixelFormat(),
		TextureType: metadata.TextureType2DMultisampleArray,
		Width:       resolve.Width(),
		Height:      resolve.Height(),
		ArrayLength: resolve.ArrayLength(),
		SampleCount: sampleCount,
		Usage:       metadata.TextureUsageRenderTarget,
		StorageMode: metadata.StorageModeMemoryless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %dx%d transient target: %w", resolve.Width(), resolve.Height(), err)
	}
	texture.SetLabel(uuid.NewString())
	core.LogDebug("transient target '%s' allocated (%dx%d, %d samples)", texture.Label(), resolve.Width(), resolve.Height(), sampleCount)
	return texture, nil
}

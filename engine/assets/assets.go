package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-skybox/engine/assets/loaders"
	"github.com/spaghettifunk/anima-skybox/engine/core"
)

type AssetInfo struct {
	// Name is the file name without directory and extension.
	Name       string
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
}

// FnOnChange is called from the watcher goroutine when an indexed asset is
// created, written or removed.
type FnOnChange func(info AssetInfo, op fsnotify.Op)

/**
 * @brief Indexes the images and shaders below a directory and keeps the
 * index current while files change on disk.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex     sync.RWMutex
	listeners []FnOnChange

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	// Register loaders
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(loaders.ResourceTypeImage, &loaders.ImageLoader{})

	if err := am.addRecursive(root); err != nil {
		return err
	}
	am.started = true
	go am.start()

	core.LogInfo("asset manager watching '%s' (%d assets)", root, am.Count())
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// OnChange registers a listener for asset changes.
func (am *AssetManager) OnChange(fn FnOnChange) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.listeners = append(am.listeners, fn)
}

// Lookup finds an indexed asset by name and type.
func (am *AssetManager) Lookup(name string, resourceType loaders.ResourceType) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	for _, a := range am.assets {
		if a.Name == name && a.Type == resourceType {
			return a, true
		}
	}
	return AssetInfo{}, false
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType loaders.ResourceType) (*loaders.Resource, error) {
	asset, exists := am.Lookup(name, resourceType)
	if !exists {
		return nil, fmt.Errorf("asset not found: %s (%s)", name, resourceType)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	res, err := loader.Load(asset.Path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[asset.Path] = asset
	am.mutex.Unlock()
	return res, nil
}

// Shutdown stops the watcher goroutine and closes the watcher.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	started := am.started
	am.mutex.Unlock()

	if !started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if info, ok := am.handleFileEvent(e.Name); ok {
					am.notify(info, e.Op)
				}
			}
			// A removed path may have been a directory; the watcher drops it on its own.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if info, ok := am.removeAsset(e.Name); ok {
					am.notify(info, e.Op)
				}
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(info AssetInfo, op fsnotify.Op) {
	am.mutex.RLock()
	listeners := append([]FnOnChange(nil), am.listeners...)
	am.mutex.RUnlock()
	core.LogDebug("asset %s: %s", op, info.Path)
	for _, l := range listeners {
		l(info, op)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
		Type: assetType,
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	info, ok := am.assets[path]
	delete(am.assets, path)
	return info, ok
}

func determineAssetType(path string) loaders.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".metal":
		return loaders.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return loaders.ResourceTypeImage
	default:
		return loaders.ResourceTypeNone
	}
}

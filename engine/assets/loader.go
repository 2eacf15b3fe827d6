package assets

import "github.com/spaghettifunk/anima-skybox/engine/assets/loaders"

type Loader interface {
	Load(path string) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}

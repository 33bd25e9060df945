package report

import "github.com/vk/launchgrid/internal/loader"

// Walk calls fn for root and every descendant, parents first.
func Walk(root loader.Loader, fn func(loader.Loader)) {
	fn(root)
	if c, ok := root.(*loader.Combo); ok {
		for _, child := range c.Loaders() {
			Walk(child, fn)
		}
	}
}

// watch subscribes the given handlers to every loader of the tree. Nil
// handlers are skipped.
func watch(root loader.Loader, onState func(loader.StateEvent), onProgress func(loader.ProgressEvent)) func() {
	var subs []*loader.Subscription
	Walk(root, func(l loader.Loader) {
		if onState != nil {
			subs = append(subs, l.OnStateChange(onState))
		}
		if onProgress != nil {
			subs = append(subs, l.OnProgressChange(onProgress))
		}
	})
	return func() {
		for _, s := range subs {
			s.Cancel()
		}
	}
}

func isLeaf(l loader.Loader) bool {
	_, ok := l.(*loader.Task)
	return ok
}

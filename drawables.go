package telereso

import (
	"context"
	"net/url"

	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/resolve"
)

// BundleScheme marks drawable references that point at an asset shipped with
// the application instead of a remote URL.
const BundleScheme = "bundle"

// ResolveDrawable returns the URL of key for the configured density, falling
// back to the default drawables group.
func (r *Resolver) ResolveDrawable(ctx context.Context, key string) (*url.URL, bool) {
	density := r.currentSettings().density
	result := resolve.Drawable(r.store.Current(), density, key)

	if r.logDrawables() {
		r.Log(ctx).
			WithField("key", key).
			WithField("density", density).
			WithField("group", result.Group).
			WithField("found", result.Found).
			Info("drawable resolved")
	}

	if !result.Found {
		r.hooks.OnResourceNotFound(ctx, keys.DomainDrawables, key)
		return nil, false
	}
	return result.URL, true
}

// ResolveDrawableOr resolves key, or references the bundled placeholder asset
// when it is not found remotely. An empty placeholder references key itself.
func (r *Resolver) ResolveDrawableOr(ctx context.Context, key, placeholder string) *url.URL {
	if u, ok := r.ResolveDrawable(ctx, key); ok {
		return u
	}
	if placeholder == "" {
		placeholder = key
	}
	return &url.URL{Scheme: BundleScheme, Host: placeholder}
}

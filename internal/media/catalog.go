package media

import (
	"context"
	"strings"
	"sync"
)

type badgeKey struct {
	setID string
	id    string
}

// Catalog is the lazily populated image cache. Lookups that miss fetch the
// relevant collection through the Loader, populate the cache and retry, so a
// hit on a warm cache never touches the network. A single mutex guards all
// maps; both event sessions and the chat session share one Catalog.
type Catalog struct {
	loader        Loader
	broadcasterID string

	mu            sync.Mutex
	emotes        map[string]*EmoteInfo
	badges        map[badgeKey]*BadgeInfo
	cheermotes    map[string]*Cheermote
	loadedSets    map[string]bool
	globalEmotes  bool
	badgesLoaded  bool
	cheersLoaded  bool
}

// NewCatalog returns an empty catalog populating itself for the given
// broadcaster through the loader.
func NewCatalog(loader Loader, broadcasterID string) *Catalog {
	return &Catalog{
		loader:        loader,
		broadcasterID: broadcasterID,
		emotes:        make(map[string]*EmoteInfo),
		badges:        make(map[badgeKey]*BadgeInfo),
		cheermotes:    make(map[string]*Cheermote),
		loadedSets:    make(map[string]bool),
	}
}

// Reset drops every cached entry. The next lookup repopulates from the API.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emotes = make(map[string]*EmoteInfo)
	c.badges = make(map[badgeKey]*BadgeInfo)
	c.cheermotes = make(map[string]*Cheermote)
	c.loadedSets = make(map[string]bool)
	c.globalEmotes = false
	c.badgesLoaded = false
	c.cheersLoaded = false
}

// WarmEmoteSet loads one emote set into the cache if it is not there yet.
func (c *Catalog) WarmEmoteSet(ctx context.Context, setID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmEmoteSetLocked(ctx, setID)
}

func (c *Catalog) warmEmoteSetLocked(ctx context.Context, setID string) error {
	if c.loadedSets[setID] {
		return nil
	}
	emotes, err := c.loader.FetchEmoteSet(ctx, setID)
	if err != nil {
		return err
	}
	c.loadedSets[setID] = true
	for _, e := range emotes {
		c.emotes[e.ID] = e
	}
	return nil
}

// Emote resolves an emote by ID within a known emote set, loading the set on
// first use.
func (c *Catalog) Emote(ctx context.Context, setID, id string) *EmoteInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.emotes[id]; ok {
		return e
	}
	if setID != "" {
		if err := c.warmEmoteSetLocked(ctx, setID); err != nil {
			return nil
		}
	}
	return c.emotes[id]
}

// EmoteByID resolves an emote with no set hint, falling back to the global
// emote collection. IRC emote spans carry only the emote ID.
func (c *Catalog) EmoteByID(ctx context.Context, id string) *EmoteInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.emotes[id]; ok {
		return e
	}
	if !c.globalEmotes {
		emotes, err := c.loader.FetchGlobalEmotes(ctx)
		if err != nil {
			return nil
		}
		c.globalEmotes = true
		for _, e := range emotes {
			c.emotes[e.ID] = e
		}
	}
	return c.emotes[id]
}

// Badge resolves one badge version, loading global and channel badge sets on
// first use. Channel badges override global ones with the same key.
func (c *Catalog) Badge(ctx context.Context, setID, id string) *BadgeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := badgeKey{setID, id}
	if b, ok := c.badges[k]; ok {
		return b
	}
	if !c.badgesLoaded {
		global, err := c.loader.FetchGlobalBadges(ctx)
		if err != nil {
			return nil
		}
		channel, err := c.loader.FetchChannelBadges(ctx, c.broadcasterID)
		if err != nil {
			return nil
		}
		c.badgesLoaded = true
		for _, b := range global {
			c.badges[badgeKey{b.SetID, b.ID}] = b
		}
		for _, b := range channel {
			c.badges[badgeKey{b.SetID, b.ID}] = b
		}
	}
	return c.badges[k]
}

// Cheermote resolves a cheermote by prefix, case-insensitively.
func (c *Catalog) Cheermote(ctx context.Context, prefix string) *Cheermote {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(prefix)
	if cm, ok := c.cheermotes[key]; ok {
		return cm
	}
	if !c.cheersLoaded {
		cheers, err := c.loader.FetchCheermotes(ctx, c.broadcasterID)
		if err != nil {
			return nil
		}
		c.cheersLoaded = true
		for _, cm := range cheers {
			c.cheermotes[strings.ToLower(cm.Prefix())] = cm
		}
	}
	return c.cheermotes[key]
}

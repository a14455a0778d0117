package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/misskey"
	"github.com/oreeke/twipsybot/internal/model"
)

// streamingChannels builds the initial subscription list: the main channel,
// the timelines enabled in config, and one antenna channel per resolved
// antenna selector.
func (b *Bot) streamingChannels(ctx context.Context) ([]model.ChannelSpec, error) {
	specs := []model.ChannelSpec{{Name: constants.ChannelMain}}

	timelines := []struct {
		enabled bool
		name    string
	}{
		{b.cfg.Timelines.Home, constants.ChannelHomeTimeline},
		{b.cfg.Timelines.Local, constants.ChannelLocalTimeline},
		{b.cfg.Timelines.Hybrid, constants.ChannelHybridTimeline},
		{b.cfg.Timelines.Global, constants.ChannelGlobalTimeline},
	}
	for _, tl := range timelines {
		if tl.enabled {
			specs = append(specs, model.ChannelSpec{Name: tl.name})
		}
	}

	ids, err := b.resolveAntennas(ctx, b.cfg.Antennas)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		specs = append(specs, model.ChannelSpec{
			Name:   constants.ChannelAntenna,
			Params: map[string]any{"antennaId": id},
		})
	}
	return specs, nil
}

// resolveAntennas maps config selectors (antenna ids or display names) to
// antenna ids via the REST API. Unknown and ambiguous selectors are skipped
// with a warning; duplicates are dropped.
func (b *Bot) resolveAntennas(ctx context.Context, selectors []string) ([]string, error) {
	var normalized []string
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			normalized = append(normalized, s)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	antennas, err := b.api.Antennas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing antennas: %w", err)
	}
	byID, byName := indexAntennas(antennas)

	var resolved []string
	seen := make(map[string]bool)
	for _, selector := range normalized {
		id := b.resolveAntennaSelector(selector, byID, byName)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		resolved = append(resolved, id)
	}
	return resolved, nil
}

func (b *Bot) resolveAntennaSelector(selector string, byID map[string]bool, byName map[string][]string) string {
	if byID[selector] {
		return selector
	}
	candidates := byName[selector]
	switch len(candidates) {
	case 0:
		b.log.Warn("Antenna not found", "selector", selector)
		return ""
	case 1:
		return candidates[0]
	default:
		b.log.Warn("Antenna name is ambiguous", "selector", selector, "matches", len(candidates))
		return ""
	}
}

func indexAntennas(antennas []misskey.Antenna) (byID map[string]bool, byName map[string][]string) {
	byID = make(map[string]bool)
	byName = make(map[string][]string)
	for _, a := range antennas {
		if a.ID == "" {
			continue
		}
		byID[a.ID] = true
		if name := strings.TrimSpace(a.Name); name != "" {
			byName[name] = append(byName[name], a.ID)
		}
	}
	return byID, byName
}

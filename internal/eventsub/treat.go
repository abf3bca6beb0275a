package eventsub

import (
	"context"

	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
)

// Border colors for chat announcements, as the Twitch UI shows them.
var announcementColors = map[string]string{
	"PRIMARY": "#ff0000",
	"GREEN":   "#00ff00",
	"ORANGE":  "#daa520",
	"BLUE":    "#1e90ff",
	"PURPLE":  "#8a2be2",
}

// tierFromPlan maps the wire sub plan to a tier number, -1 for plans we do
// not recognize. Events with unknown plans are ignored, not errors.
func tierFromPlan(plan string) int {
	switch plan {
	case "1000":
		return 1
	case "2000":
		return 2
	case "3000":
		return 3
	default:
		return -1
	}
}

// subTier reads the tier of a sub/resub/sub_gift notice, Prime counting as
// its own tier above 3.
func subTier(notice EventData) int {
	if notice.Bool("is_prime") {
		return 4
	}
	return tierFromPlan(notice.String("sub_tier"))
}

func treatFollow(_ context.Context, r *Registry, data EventData) {
	if user := data.User(""); user != nil {
		r.handler.OnFollow(user)
	}
}

func treatSubscribe(_ context.Context, r *Registry, data EventData) {
	user := data.User("")
	if user == nil || !data.Has("tier") {
		return
	}
	tier := tierFromPlan(data.String("tier"))
	if tier == -1 {
		return
	}
	r.handler.OnSub(user, tier, data.Bool("is_gift"))
}

func treatSubscriptionGift(_ context.Context, r *Registry, data EventData) {
	if !data.Has("is_anonymous") {
		return
	}
	gifter := data.User("")
	if gifter == nil && !data.Bool("is_anonymous") {
		return
	}
	tier := tierFromPlan(data.String("tier"))
	if tier == -1 || !data.Has("total") {
		return
	}
	r.handler.OnGiftSub(gifter, tier, data.Int("total"))
}

func treatRaid(_ context.Context, r *Registry, data EventData) {
	if !data.Has("viewers") {
		return
	}
	from := data.User("from_broadcaster_")
	to := data.User("to_broadcaster_")
	if from == nil || to == nil {
		return
	}
	viewers := data.Int("viewers")
	if from.ID == r.channelID {
		r.handler.OnRaiding(to, viewers)
	} else {
		r.handler.OnRaided(from, viewers)
	}
}

func treatCustomRewardRedemption(_ context.Context, r *Registry, data EventData) {
	user := data.User("")
	reward := data.Object("reward")
	if user == nil || reward == nil {
		return
	}
	r.handler.OnReward(user, reward.String("title"), data.String("user_input"))
}

func treatAutomaticRewardRedemption(ctx context.Context, r *Registry, data EventData) {
	user := data.User("")
	reward := data.Object("reward")
	if user == nil || reward == nil || !data.Has("id") {
		return
	}
	var input richtext.Text
	if message := data.Object("message"); message != nil {
		input = r.renderer.RenderFragments(ctx, fragmentsFromData(message.List("fragments")))
	}
	r.handler.OnRewardClaimed(user, model.RewardRedemption{
		ID:       data.String("id"),
		RewardID: reward.String("id"),
	}, input)
}

func rewardInfoFromData(data EventData) *model.RewardInfo {
	info := &model.RewardInfo{
		ID:                  data.String("id"),
		Title:               data.String("title"),
		Prompt:              data.String("prompt"),
		BackgroundColor:     data.String("background_color"),
		Cost:                data.Int("cost"),
		IsUserInputRequired: data.Bool("is_user_input_required"),
		IsEnabled:           data.Bool("is_enabled"),
		IsPaused:            data.Bool("is_paused"),
		IsInStock:           data.Bool("is_in_stock"),
		SkipRequestQueue:    data.Bool("should_redemptions_skip_request_queue"),
	}
	info.GlobalCooldownSeconds = limitValue(data.Object("global_cooldown"), "seconds")
	info.MaxPerStream = limitValue(data.Object("max_per_stream"), "value")
	info.MaxPerUserPerStream = limitValue(data.Object("max_per_user_per_stream"), "value")
	return info
}

func limitValue(limit EventData, key string) int {
	if limit == nil || !limit.Bool("is_enabled") {
		return -1
	}
	return limit.Int(key)
}

func treatRewardCreated(_ context.Context, r *Registry, data EventData) {
	r.handler.OnRewardCreated(rewardInfoFromData(data))
}

func treatRewardUpdated(_ context.Context, r *Registry, data EventData) {
	r.handler.OnRewardUpdated(rewardInfoFromData(data))
}

func treatRewardDeleted(_ context.Context, r *Registry, data EventData) {
	r.handler.OnRewardDeleted(data.String("id"))
}

func treatStreamOnline(_ context.Context, r *Registry, _ EventData) {
	r.handler.OnStreamStart()
}

func treatStreamOffline(_ context.Context, r *Registry, _ EventData) {
	r.handler.OnStreamStop()
}

func treatShoutoutCreate(_ context.Context, r *Registry, data EventData) {
	moderator := data.User("moderator_")
	target := data.User("to_broadcaster_")
	if moderator != nil && target != nil {
		r.handler.OnShoutout(moderator, target)
	}
}

func treatShoutoutReceive(_ context.Context, r *Registry, data EventData) {
	if from := data.User("from_broadcaster_"); from != nil {
		r.handler.OnBeingShoutout(from)
	}
}

func treatChatMessage(ctx context.Context, r *Registry, data EventData) {
	user, color, ok := r.chatUser(ctx, data, "chatter_user_id")
	if !ok {
		return
	}
	broadcaster := r.sourceBroadcaster(ctx, data)
	if broadcaster == nil {
		return
	}
	messageID := data.String("message_id")
	message := data.Object("message")
	if messageID == "" || message == nil {
		return
	}
	var replyID string
	if reply := data.Object("reply"); reply != nil {
		replyID = reply.String("parent_message_id")
	}
	text := r.renderer.RenderFragments(ctx, fragmentsFromData(message.List("fragments")))
	r.handler.OnChatMessage(&model.ChatMessage{
		ID:            messageID,
		Broadcaster:   broadcaster,
		User:          user,
		UserColor:     color,
		Highlight:     data.String("message_type") == "channel_points_highlighted",
		ReplyParentID: replyID,
		Message:       text,
	})
	if cheer := data.Object("cheer"); cheer != nil && cheer.Has("bits") {
		r.handler.OnBits(user, cheer.Int("bits"), text)
	}
}

func treatChatNotification(ctx context.Context, r *Registry, data EventData) {
	user, color, ok := r.chatUser(ctx, data, "chatter_user_id")
	if !ok {
		return
	}
	messageID := data.String("message_id")
	message := data.Object("message")
	noticeType := data.String("notice_type")
	if messageID == "" || message == nil || noticeType == "" {
		return
	}
	text := r.renderer.RenderFragments(ctx, fragmentsFromData(message.List("fragments")))
	notice := func(announcementColor string, highlight bool) *model.ChatMessage {
		return &model.ChatMessage{
			ID:                messageID,
			User:              user,
			UserColor:         color,
			Highlight:         highlight,
			AnnouncementColor: announcementColor,
			Message:           text,
		}
	}
	switch noticeType {
	case "sub":
		sub := data.Object("sub")
		if sub == nil {
			return
		}
		tier := subTier(sub)
		if tier == -1 {
			return
		}
		months := sub.Int("duration_months")
		if months == 0 {
			months = 1
		}
		r.handler.OnChatMessage(notice("", true))
		r.handler.OnSharedSub(user, tier, months, -1, text)
	case "resub":
		resub := data.Object("resub")
		if resub == nil {
			return
		}
		tier := subTier(resub)
		if tier == -1 {
			return
		}
		months := resub.Int("duration_months")
		if months == 0 {
			months = 1
		}
		streak := -1
		if resub.Has("streak_months") {
			streak = resub.Int("streak_months")
		}
		if resub.Bool("is_gift") {
			gifterID := resub.String("gifter_user_id")
			if gifterID == "" {
				return
			}
			gifter, err := r.users.UserByID(ctx, gifterID)
			if err != nil {
				gifter = nil
			}
			r.handler.OnChatMessage(notice("", true))
			r.handler.OnSharedGiftSub(gifter, user, tier, months, streak, text)
		} else {
			r.handler.OnChatMessage(notice("", true))
			r.handler.OnSharedSub(user, tier, months, streak, text)
		}
	case "sub_gift":
		subGift := data.Object("sub_gift")
		if subGift == nil {
			return
		}
		tier := subTier(subGift)
		if tier == -1 {
			return
		}
		recipientID := subGift.String("recipient_user_id")
		if recipientID == "" {
			return
		}
		recipient, err := r.users.UserByID(ctx, recipientID)
		if err != nil {
			return
		}
		months := subGift.Int("duration_months")
		if months == 0 {
			months = 1
		}
		r.handler.OnChatMessage(notice("", true))
		r.handler.OnSharedGiftSub(user, recipient, tier, months, -1, text)
	case "announcement":
		announcement := data.Object("announcement")
		if announcement == nil {
			return
		}
		borderColor, ok := announcementColors[announcement.String("color")]
		if !ok {
			return
		}
		r.handler.OnChatMessage(notice(borderColor, false))
	}
}

func treatChatMessageDelete(_ context.Context, r *Registry, data EventData) {
	if data.Has("message_id") {
		r.handler.OnChatMessageRemoved(data.String("message_id"))
	}
}

func treatChatClear(_ context.Context, r *Registry, _ EventData) {
	r.handler.OnChatClear()
}

func treatChatClearUserMessages(_ context.Context, r *Registry, data EventData) {
	if data.Has("target_user_id") {
		r.handler.OnChatUserRemoved(data.String("target_user_id"))
	}
}

func treatAutomodHold(ctx context.Context, r *Registry, data EventData) {
	user, _, ok := r.chatUser(ctx, data, "user_id")
	if !ok {
		return
	}
	messageID := data.String("message_id")
	message := data.Object("message")
	if messageID == "" || message == nil {
		return
	}
	text := r.renderer.RenderFragments(ctx, fragmentsFromData(message.List("fragments")))
	r.handler.OnMessageHeld(user, messageID, text)
}

func treatAutomodUpdate(_ context.Context, r *Registry, data EventData) {
	if data.Has("message_id") {
		r.handler.OnHeldMessageTreated(data.String("message_id"))
	}
}

func treatSharedChatBegin(_ context.Context, r *Registry, _ EventData) {
	r.handler.OnSharedChatStart()
}

func treatSharedChatEnd(_ context.Context, r *Registry, _ EventData) {
	r.handler.OnSharedChatStop()
}

// chatUser resolves the full user record behind a chat event, the display
// color falling back to the deterministic palette, badges resolved through
// the catalog.
func (r *Registry) chatUser(ctx context.Context, data EventData, idKey string) (*model.User, string, bool) {
	id := data.String(idKey)
	if id == "" {
		return nil, "", false
	}
	found, err := r.users.UserByID(ctx, id)
	if err != nil {
		r.log.Debug("user lookup failed", "user", id, "error", err)
		return nil, "", false
	}
	user := *found
	for _, badge := range data.List("badges") {
		setID := badge.String("set_id")
		badgeID := badge.String("id")
		if setID == "" || badgeID == "" {
			continue
		}
		if info := r.catalog.Badge(ctx, setID, badgeID); info != nil {
			user.Badges = append(user.Badges, info)
		}
	}
	return &user, richtext.UserColor(user.Login, data.String("color")), true
}

// sourceBroadcaster resolves the channel a chat message originated in,
// which differs from ours during a shared chat session.
func (r *Registry) sourceBroadcaster(ctx context.Context, data EventData) *model.User {
	id := data.String("source_broadcaster_user_id")
	if id == "" {
		id = data.String("broadcaster_user_id")
	}
	if id == "" {
		return nil
	}
	broadcaster, err := r.users.UserByID(ctx, id)
	if err != nil {
		return nil
	}
	return broadcaster
}

func fragmentsFromData(list []EventData) []richtext.Fragment {
	fragments := make([]richtext.Fragment, 0, len(list))
	for _, f := range list {
		fragment := richtext.Fragment{
			Type: f.String("type"),
			Text: f.String("text"),
		}
		if emote := f.Object("emote"); emote != nil {
			fragment.EmoteID = emote.String("id")
			fragment.EmoteSetID = emote.String("emote_set_id")
		}
		if cheermote := f.Object("cheermote"); cheermote != nil {
			fragment.CheerPrefix = cheermote.String("prefix")
			fragment.CheerBits = cheermote.Int("bits")
		}
		if mention := f.Object("mention"); mention != nil {
			fragment.MentionName = mention.String("user_name")
		}
		fragments = append(fragments, fragment)
	}
	return fragments
}

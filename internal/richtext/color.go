package richtext

// Twitch's default name colors, assigned when a user never picked one.
var palette = [...]string{
	"#ff0000",
	"#00ff00",
	"#0000ff",
	"#b22222",
	"#ff7f50",
	"#9acd32",
	"#ff4500",
	"#2e8b57",
	"#daa520",
	"#d2691e",
	"#5f9ea0",
	"#1e90ff",
	"#ff69b4",
	"#8a2be2",
	"#00ff7f",
}

// UserColor returns the explicit color when set, otherwise a palette entry
// picked from the username so the same user always gets the same color.
func UserColor(username, color string) string {
	if color != "" {
		return color
	}
	sum := 0
	for _, r := range username {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}

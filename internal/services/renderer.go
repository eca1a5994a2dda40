package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"cinnarito/internal/growth"
	"cinnarito/internal/models"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	progressBarWidth    = 10
	progressBarMaxLevel = 20
)

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

type Template struct {
	Title   string
	Content string
}

var defaultTemplates = map[models.ChronicleType]Template{
	models.ChronicleDaily: {
		Title: "{{treeEmoji}} Daily Chronicle of r/{{gameState.subredditName}}: {{date}}",
		Content: `{{treeEmoji}} The Spirit Tree of r/{{gameState.subredditName}} stands at **Level {{gameState.treeLevel}}** ({{levelName}}).

Growth: ` + "`{{progressBar}}`" + ` {{gameState.totalGrowth}} total

Since the grove was planted the community has:
- planted {{dailyStats.seedsPlanted}} cinnamon seeds
- fed the forest spirits {{dailyStats.spiritsFed}} times
- charged the garden robot {{dailyStats.robotCharged}} times
- gathered {{dailyStats.redditUpvotes}} upvotes

{{dailyStats.activePlayerCount}} caretakers tended the tree in the last hour. {{growthToNext}} growth until the next level.`,
	},
	models.ChronicleWeekly: {
		Title: "{{treeEmoji}} Weekly Chronicle of r/{{gameState.subredditName}}",
		Content: `Another week under the branches of r/{{gameState.subredditName}}.

The Spirit Tree is **Level {{gameState.treeLevel}}** ({{levelName}}) with {{gameState.totalGrowth}} growth.
` + "`{{progressBar}}`" + `

Lifetime tally: {{gameState.seedsPlanted}} seeds, {{gameState.spiritsFed}} spirit feasts, {{gameState.robotCharged}} robot charges.

The tree is {{levelProgress}}% of the way through this level. Keep planting, the next level needs {{growthToNext}} more growth.`,
	},
	models.ChronicleMilestone: {
		Title: "✨ r/{{gameState.subredditName}} reached Level {{gameState.treeLevel}}!",
		Content: `{{treeEmoji}} The Spirit Tree of r/{{gameState.subredditName}} has grown into a **{{levelName}}**!

Total growth: {{gameState.totalGrowth}}
` + "`{{progressBar}}`" + `

Thank you to every caretaker who planted, fed and charged along the way.`,
	},
}

// Renderer fills chronicle templates from a context object. Placeholders are
// dotted paths into the context; unresolved ones are kept as written.
type Renderer struct {
	templates map[models.ChronicleType]Template
}

func NewRenderer() *Renderer {
	return &Renderer{templates: defaultTemplates}
}

func (r *Renderer) Render(kind models.ChronicleType, data any) (*models.Chronicle, error) {
	tpl, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTemplate, kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode template context: %w", err)
	}
	return &models.Chronicle{
		Type:    kind,
		Title:   substitute(tpl.Title, raw),
		Content: substitute(tpl.Content, raw),
	}, nil
}

// RenderString fills an ad hoc template.
func RenderString(tpl string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode template context: %w", err)
	}
	return substitute(tpl, raw), nil
}

func substitute(tpl string, raw []byte) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		res := gjson.GetBytes(raw, path)
		if !res.Exists() || res.Type == gjson.Null {
			return match
		}
		return res.String()
	})
}

// ChronicleContext assembles the values templates can reference.
func ChronicleContext(state *models.GameState, stats *models.DailyGrowthStats, date string) map[string]any {
	ctx := map[string]any{
		"gameState":   state,
		"treeEmoji":   TreeEmoji(state.TreeLevel),
		"progressBar": ProgressBar(state.TreeLevel),
		"levelName":   LevelName(state.TreeLevel),
		"date":        date,
		// whole percent toward the next threshold, 100 at the top level
		"levelProgress": int(math.Round(growth.Progress(state.TotalGrowth) * 100)),
	}
	if stats != nil {
		ctx["dailyStats"] = stats
	}
	if next, ok := growth.NextThreshold(state.TreeLevel); ok {
		ctx["growthToNext"] = growth.Round2(max(0, next-state.TotalGrowth))
		ctx["nextLevel"] = state.TreeLevel + 1
	} else {
		ctx["growthToNext"] = 0
	}
	return ctx
}

func TreeEmoji(level int) string {
	switch {
	case level >= 6:
		return "🌳✨"
	case level >= 5:
		return "🌳"
	case level >= 3:
		return "🌲"
	case level >= 2:
		return "🌿"
	default:
		return "🌱"
	}
}

func ProgressBar(level int) string {
	filled := level * progressBarWidth / progressBarMaxLevel
	filled = max(0, min(filled, progressBarWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
}

var levelNames = []string{"Seedling", "Sprout", "Sapling", "Young Tree", "Elder Tree", "Spirit Tree"}

func LevelName(level int) string {
	if level < 1 || level > len(levelNames) {
		return "Unknown"
	}
	return levelNames[level-1]
}

package bot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const botIDPrefix = "bot-"

// NewBotID returns a fresh player id in the bot namespace.
func NewBotID() string {
	return botIDPrefix + uuid.NewString()
}

// IsBot reports whether the given user ID belongs to a bot.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, botIDPrefix)
}

// BotName returns a display name for a bot by index (mod pool size).
func BotName(names []string, index int) string {
	if len(names) == 0 {
		return fmt.Sprintf("AI Player %d", index+1)
	}
	return names[index%len(names)]
}

// NewAgents builds n agents of the given level with fresh ids.
func NewAgents(n int, level BotLevel, names []string) ([]*Agent, error) {
	agents := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		strategy, err := NewBrain(level)
		if err != nil {
			return nil, err
		}
		agents = append(agents, NewAgent(NewBotID(), BotName(names, i), strategy))
	}
	return agents, nil
}

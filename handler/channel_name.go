package handler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/pyama86/fishstick/domain/repository"
)

var adjectives = []string{
	"amber", "brave", "calm", "clever", "crimson", "curious", "daring", "eager",
	"fancy", "gentle", "golden", "happy", "hidden", "jolly", "keen", "lively",
	"lucky", "mellow", "misty", "nimble", "noble", "polite", "proud", "quiet",
	"rapid", "rustic", "shy", "silent", "silver", "smooth", "sunny", "swift",
	"tidy", "vivid", "wild", "witty", "young", "zesty",
}

var animals = []string{
	"badger", "beaver", "bison", "camel", "cobra", "crane", "dolphin", "eagle",
	"falcon", "ferret", "gecko", "heron", "ibis", "jackal", "koala", "lemur",
	"lynx", "marmot", "moose", "narwhal", "otter", "owl", "panda", "pelican",
	"puffin", "quail", "raven", "salmon", "seal", "sloth", "stork", "tapir",
	"toucan", "turtle", "walrus", "wombat", "yak", "zebra",
}

var intN = rand.Intn

func randomChannelName(prefix string) string {
	return fmt.Sprintf("%s%s_%s", prefix, adjectives[intN(len(adjectives))], animals[intN(len(animals))])
}

// newChannelName picks a random name and suffixes it when the name is
// already taken.
func newChannelName(ctx context.Context, repo repository.SlackRepositoryer, prefix string) (string, error) {
	name := randomChannelName(prefix)
	c, err := repo.GetChannelByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrSlackNotFound) {
		return "", fmt.Errorf("failed to GetChannelByName: %w", err)
	}
	if c != nil {
		name = fmt.Sprintf("%s_%02d", name, timeNow().Unix()%100)
	}
	return name, nil
}

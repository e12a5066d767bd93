package relay_test

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ThreeDotsLabs/relay"
)

func testUniqueness(t *testing.T, genFunc func() string) {
	producers := 50
	idsPerProducer := 5000

	if testing.Short() {
		producers = 10
		idsPerProducer = 1000
	}

	idsCount := producers * idsPerProducer

	ids := make(chan string, idsCount)
	allGenerated := sync.WaitGroup{}
	allGenerated.Add(producers)

	for i := 0; i < producers; i++ {
		go func() {
			for j := 0; j < idsPerProducer; j++ {
				ids <- genFunc()
			}
			allGenerated.Done()
		}()
	}

	uniqueIDs := make(map[string]struct{}, idsCount)

	allGenerated.Wait()
	close(ids)

	for id := range ids {
		if _, ok := uniqueIDs[id]; ok {
			t.Error(id, " has duplicate")
		}
		uniqueIDs[id] = struct{}{}
	}
}

func TestUUID(t *testing.T) {
	testUniqueness(t, relay.NewUUID)
}

func TestUUID_format(t *testing.T) {
	uuidRegexp := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	assert.Regexp(t, uuidRegexp, relay.NewUUID())
}

func TestShortUUID(t *testing.T) {
	testUniqueness(t, relay.NewShortUUID)
}

func TestULID(t *testing.T) {
	testUniqueness(t, relay.NewULID)
}

func TestULID_length(t *testing.T) {
	assert.Len(t, relay.NewULID(), 26)
}

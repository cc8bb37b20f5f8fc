package deck

import "testing"

func TestGenerateComposition(t *testing.T) {
	d := New()
	if d.Len() != 108 {
		t.Fatalf("expected 108 cards, got %d", d.Len())
	}

	colorCounts := map[Color]int{}
	typeCounts := map[CardType]int{}
	ids := map[string]bool{}
	for _, c := range d.Cards() {
		colorCounts[c.Color]++
		typeCounts[c.Type]++
		if ids[c.ID] {
			t.Fatalf("duplicate card identity %s", c.ID)
		}
		ids[c.ID] = true
	}

	for _, color := range Colors() {
		if colorCounts[color] != 25 {
			t.Errorf("expected 25 %s cards, got %d", color, colorCounts[color])
		}
	}
	if colorCounts[ColorNone] != 8 {
		t.Errorf("expected 8 colorless cards, got %d", colorCounts[ColorNone])
	}
	if typeCounts[TypeNone] != 76 {
		t.Errorf("expected 76 numbered cards, got %d", typeCounts[TypeNone])
	}
	for _, cardType := range []CardType{TypePlus2, TypeReverse, TypeSkip} {
		if typeCounts[cardType] != 8 {
			t.Errorf("expected 8 %s cards, got %d", cardType, typeCounts[cardType])
		}
	}
	if typeCounts[TypeWild] != 4 || typeCounts[TypePlus4] != 4 {
		t.Errorf("expected 4 wild and 4 plus4 cards, got %d and %d", typeCounts[TypeWild], typeCounts[TypePlus4])
	}
}

func TestShufflePreservesMultiset(t *testing.T) {
	d := New()
	before := map[string]int{}
	for _, c := range d.Cards() {
		before[c.ID]++
	}

	d.Shuffle()

	after := map[string]int{}
	for _, c := range d.Cards() {
		after[c.ID]++
	}
	if len(after) != len(before) {
		t.Fatalf("expected %d distinct cards after shuffle, got %d", len(before), len(after))
	}
	for id, n := range before {
		if after[id] != n {
			t.Fatalf("card %s count changed from %d to %d", id, n, after[id])
		}
	}
}

// The front card of a fresh deck should land on a uniformly random index
// after shuffling. The mean over many shuffles sits near 53.5 for an
// unbiased permutation; the tolerance is several standard errors wide.
func TestShuffleUniformity(t *testing.T) {
	const iterations = 2000

	total := 0
	for i := 0; i < iterations; i++ {
		d := New()
		front := d.Cards()[0].ID
		d.Shuffle()
		for idx, c := range d.Cards() {
			if c.ID == front {
				total += idx
				break
			}
		}
	}

	mean := float64(total) / iterations
	if mean < 45 || mean > 62 {
		t.Errorf("expected mean landing index near 53.5, got %.2f", mean)
	}
}

func TestPickRemovesExactlyOne(t *testing.T) {
	d := New()
	top := d.Cards()[0]

	card, err := d.Draw()
	if err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}
	if card.ID != top.ID {
		t.Errorf("expected front card %s, got %s", top.ID, card.ID)
	}
	if d.Len() != 107 {
		t.Errorf("expected 107 cards after draw, got %d", d.Len())
	}
	for _, c := range d.Cards() {
		if c.ID == card.ID {
			t.Fatal("drawn card still present in deck")
		}
	}

	if _, err := d.Pick(500); err == nil {
		t.Error("expected out of range pick to fail")
	}
}

func TestDrawFromEmptyDeck(t *testing.T) {
	d := New()
	for !d.Empty() {
		if _, err := d.Draw(); err != nil {
			t.Fatalf("unexpected error draining deck: %v", err)
		}
	}
	if _, err := d.Draw(); err != ErrEmptyDeck {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestPushReturnsCardsToDeck(t *testing.T) {
	d := New()
	first, _ := d.Draw()
	second, _ := d.Draw()

	d.Push(first, second)

	if d.Len() != 108 {
		t.Fatalf("expected 108 cards after push, got %d", d.Len())
	}
	cards := d.Cards()
	if cards[len(cards)-2].ID != first.ID || cards[len(cards)-1].ID != second.ID {
		t.Error("expected pushed cards at the bottom of the deck")
	}
}

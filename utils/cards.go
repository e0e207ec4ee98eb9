package utils

import (
	"fmt"
	"strconv"
)

// Suit of a playing card
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in deck-building order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥️"
	case Diamonds:
		return "♦️"
	case Clubs:
		return "♣️"
	case Spades:
		return "♠️"
	default:
		return "?"
	}
}

// Rank of a playing card; 11-14 are the court cards and the ace
type Rank int

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Ranks lists 2..10, J, Q, K, A
var Ranks = []Rank{2, 3, 4, 5, 6, 7, 8, 9, 10, Jack, Queen, King, Ace}

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return strconv.Itoa(int(r))
	}
}

// Card represents a playing card
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	Hidden bool `json:"hidden"`
}

// NewCard creates a face-up card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the string representation of a card
func (c Card) String() string {
	if c.Hidden {
		return "??"
	}
	return c.Rank.String() + c.Suit.String()
}

// FaceValue is the blackjack value with the ace counted high
func (c Card) FaceValue() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

// IsAce checks if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Deck is a single 52-card deck drawn from its end
type Deck struct {
	cards []Card
}

// NewDeck builds a full deck and shuffles it with rng
func NewDeck(rng Rand) *Deck {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// NewStackedDeck returns a deck that deals the given cards in order
func NewStackedDeck(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	for i, c := range cards {
		stacked[len(cards)-1-i] = c
	}
	return &Deck{cards: stacked}
}

// Draw pops the next card; the deck is never replenished mid-round
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, fmt.Errorf("deck is empty")
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt cards
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Hand represents a hand of playing cards
type Hand struct {
	Cards []Card `json:"cards"`
}

// NewHand creates a new hand
func NewHand(cards ...Card) *Hand {
	return &Hand{Cards: append([]Card(nil), cards...)}
}

// AddCard adds a card to the hand
func (h *Hand) AddCard(card Card) {
	h.Cards = append(h.Cards, card)
}

// Reveal turns every hidden card face up
func (h *Hand) Reveal() {
	for i := range h.Cards {
		h.Cards[i].Hidden = false
	}
}

// Score returns the blackjack total of the hand's revealed cards
func (h *Hand) Score() int {
	return Score(h.Cards)
}

// IsNatural checks for a two-card 21
func (h *Hand) IsNatural() bool {
	return len(h.Cards) == 2 && h.Score() == BlackjackValue
}

// IsBust checks if the hand is over 21
func (h *Hand) IsBust() bool {
	return h.Score() > BlackjackValue
}

// String returns string representation of the hand
func (h *Hand) String() string {
	result := ""
	for i, card := range h.Cards {
		if i > 0 {
			result += " "
		}
		result += card.String()
	}
	return result
}

// Score sums non-ace cards first, then counts each ace as 11 while the
// running total stays at or under 21 and as 1 otherwise. Hidden cards
// contribute nothing.
func Score(cards []Card) int {
	total := 0
	aces := 0
	for _, card := range cards {
		if card.Hidden {
			continue
		}
		if card.IsAce() {
			aces++
			continue
		}
		total += card.FaceValue()
	}
	for ; aces > 0; aces-- {
		if total+11 <= BlackjackValue {
			total += 11
		} else {
			total++
		}
	}
	return total
}

package runtime

import (
	"crypto/sha256"

	"github.com/rentchain/rentchain-go/solana"
)

// MaxRecentBlockhashes is the number of blockhashes a transaction may
// reference.
const MaxRecentBlockhashes = 150

type blockhashQueue struct {
	hashes []solana.Blockhash
	index  map[solana.Blockhash]struct{}
}

func newBlockhashQueue(genesis solana.Blockhash) *blockhashQueue {
	q := &blockhashQueue{
		index: make(map[solana.Blockhash]struct{}),
	}
	q.push(genesis)
	return q
}

func (q *blockhashQueue) latest() solana.Blockhash {
	return q.hashes[len(q.hashes)-1]
}

func (q *blockhashQueue) contains(bh solana.Blockhash) bool {
	_, ok := q.index[bh]
	return ok
}

// advance derives the next blockhash from the latest one and the
// signature of the transaction that produced it.
func (q *blockhashQueue) advance(sig solana.Signature) solana.Blockhash {
	h := sha256.New()
	latest := q.latest()
	h.Write(latest[:])
	h.Write(sig[:])

	var next solana.Blockhash
	copy(next[:], h.Sum(nil))
	q.push(next)

	return next
}

func (q *blockhashQueue) push(bh solana.Blockhash) {
	q.hashes = append(q.hashes, bh)
	q.index[bh] = struct{}{}

	if len(q.hashes) > MaxRecentBlockhashes {
		delete(q.index, q.hashes[0])
		q.hashes = q.hashes[1:]
	}
}

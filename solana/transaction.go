package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"io"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/solana/shortvec"
)

const (
	SignatureSize = ed25519.SignatureSize
	HashSize      = sha256.Size

	// MaxTransactionSize is the largest serialized transaction the network
	// accepts (IPv6 MTU minus headers).
	MaxTransactionSize = 1232
)

type Signature [SignatureSize]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

type Blockhash [HashSize]byte

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

// Header describes how the accounts of a Message are partitioned.
type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadonly       byte
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the provided instructions into an unsigned
// Transaction, with payer as the fee payer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}

	for _, i := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: i.Program,
			isProgram: true,
		})
		accounts = append(accounts, i.Accounts...)
	}

	accounts = filterUnique(accounts)
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].less(accounts[j])
	})

	var m Message
	m.Accounts = make([]ed25519.PublicKey, len(accounts))
	for i, a := range accounts {
		m.Accounts[i] = a.PublicKey

		if a.IsSigner {
			m.Header.NumSignatures++
			if !a.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !a.IsWritable {
			m.Header.NumReadonly++
		}
	}

	m.Instructions = make([]CompiledInstruction, len(instructions))
	for i, inst := range instructions {
		m.Instructions[i] = CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, inst.Program)),
			Accounts:     make([]byte, len(inst.Accounts)),
			Data:         inst.Data,
		}

		for j, a := range inst.Accounts {
			m.Instructions[i].Accounts[j] = byte(indexOf(m.Accounts, a.PublicKey))
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the transaction's first signature, which identifies it.
func (t Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}

	return t.Signatures[0]
}

// SetBlockhash sets the recent blockhash of the message. Any existing
// signatures are invalidated.
func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the transaction with the provided signers. Each signer must be one
// of the transaction's signing accounts.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 || index >= int(t.Message.Header.NumSignatures) {
			return errors.Errorf("signing account %s is not required by the transaction", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// VerifySignatures reports whether every required signature is present and
// valid.
func (t Transaction) VerifySignatures() bool {
	if len(t.Signatures) != int(t.Message.Header.NumSignatures) || len(t.Message.Accounts) < len(t.Signatures) {
		return false
	}

	messageBytes := t.Message.Marshal()
	for i, sig := range t.Signatures {
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, sig[:]) {
			return false
		}
	}

	return true
}

// IsSigner reports whether the account at index is a signer.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index is writable.
func (m Message) IsWritable(index int) bool {
	if index < int(m.Header.NumSignatures) {
		return index < int(m.Header.NumSignatures)-int(m.Header.NumReadonlySigned)
	}

	return index < len(m.Accounts)-int(m.Header.NumReadonly)
}

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Shortvec encoding only fails for lengths above MaxUint16, which
	// Unmarshal and NewTransaction cannot produce.
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		b.Write(s[:])
	}

	b.Write(t.Message.Marshal())
	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, _, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err := io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature %d", i)
		}
	}

	return t.Message.Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	b.WriteByte(m.Header.NumSignatures)
	b.WriteByte(m.Header.NumReadonlySigned)
	b.WriteByte(m.Header.NumReadonly)

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		b.Write(a)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		b.WriteByte(i.ProgramIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		b.Write(i.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	var header [3]byte
	if _, err := io.ReadFull(buf, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadonly:       header[2],
	}

	accountLen, _, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account length")
	}

	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account %d", i)
		}
	}

	if _, err := io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent blockhash")
	}

	instructionLen, _, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction length")
	}

	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		inst := &m.Instructions[i]

		if inst.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read program index of instruction %d", i)
		}

		if inst.Accounts, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read accounts of instruction %d", i)
		}

		if inst.Data, err = readBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read data of instruction %d", i)
		}
	}

	if buf.Len() > 0 {
		return errors.Errorf("%d trailing bytes after message", buf.Len())
	}

	return nil
}

func readBytes(buf *bytes.Buffer) ([]byte, error) {
	l, _, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}

	b := make([]byte, l)
	if _, err := io.ReadFull(buf, b); err != nil {
		return nil, err
	}

	return b, nil
}

func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for _, a := range accounts {
		i := -1
		for j := range filtered {
			if bytes.Equal(filtered[j].PublicKey, a.PublicKey) {
				i = j
				break
			}
		}

		if i < 0 {
			filtered = append(filtered, a)
			continue
		}

		filtered[i].IsSigner = filtered[i].IsSigner || a.IsSigner
		filtered[i].IsWritable = filtered[i].IsWritable || a.IsWritable
		filtered[i].isPayer = filtered[i].isPayer || a.isPayer
		filtered[i].isProgram = filtered[i].isProgram && a.isProgram
	}

	return filtered
}

func indexOf(keys []ed25519.PublicKey, k ed25519.PublicKey) int {
	for i := range keys {
		if bytes.Equal(keys[i], k) {
			return i
		}
	}

	return -1
}

package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/vmihailenco/msgpack/v5"
)

// Arbitrum One, the signature chain for user-signed actions.
const SignatureChainID = "0xa4b1"

// Signer produces the two signature flavors the exchange accepts:
// user-signed actions (spotSend) and L1 actions (orders).
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner parses a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key not provided")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the wallet address derived from the signing key.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignSpotSend signs a spotSend action as EIP-712 typed data under the
// HyperliquidSignTransaction domain.
func (s *Signer) SignSpotSend(action SpotSendAction) (wireSignature, error) {
	chainID, ok := math.ParseBig256(action.SignatureChainID)
	if !ok {
		return wireSignature{}, fmt.Errorf("invalid signature chain id %q", action.SignatureChainID)
	}

	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"HyperliquidTransaction:SpotSend": {
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "token", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		PrimaryType: "HyperliquidTransaction:SpotSend",
		Domain: apitypes.TypedDataDomain{
			Name:              "HyperliquidSignTransaction",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: common.Address{}.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"hyperliquidChain": action.HyperliquidChain,
			"destination":      action.Destination,
			"token":            action.Token,
			"amount":           action.Amount,
			"time":             math.NewHexOrDecimal256(action.Time),
		},
	}

	return s.signTypedData(typed)
}

// SignL1Action signs an exchange-native action (orders). The action
// hash is keccak256 over the canonical msgpack encoding of the action,
// the big-endian nonce and a zero byte (no vault), wrapped in the
// phantom Agent structure.
func (s *Signer) SignL1Action(action any, nonce int64, testnet bool) (wireSignature, error) {
	packed, err := msgpack.Marshal(action)
	if err != nil {
		return wireSignature{}, fmt.Errorf("msgpack action: %w", err)
	}

	data := make([]byte, 0, len(packed)+9)
	data = append(data, packed...)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], uint64(nonce))
	data = append(data, nonceBytes[:]...)
	data = append(data, 0x00)

	connectionID := crypto.Keccak256Hash(data)

	source := "a"
	if testnet {
		source = "b"
	}

	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(1337),
			VerifyingContract: common.Address{}.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": hexutil.Encode(connectionID[:]),
		},
	}

	return s.signTypedData(typed)
}

func (s *Signer) signTypedData(typed apitypes.TypedData) (wireSignature, error) {
	hash, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return wireSignature{}, fmt.Errorf("hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return wireSignature{}, fmt.Errorf("sign: %w", err)
	}

	return wireSignature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

package opinion

// auth.go: firma EIP-712 de órdenes límite.
//
// La orden se firma con la clave del EOA y se emite en nombre de la
// multisig (maker). Importes en unidades de 18 decimales.

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	exchangeDomainName    = "OPINION CTF Exchange"
	exchangeDomainVersion = "1"

	// signatureType 2 = Gnosis Safe (maker es la multisig).
	signatureTypeSafe = 2

	sideBuy  = 0
	sideSell = 1

	tokenDecimals = 18
)

var (
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId)",
	))
	orderTypeHash = crypto.Keccak256Hash([]byte(
		"Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)",
	))

	unitScale = decimal.New(1, tokenDecimals)
)

// Signer firma órdenes para una multisig concreta.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	maker   common.Address
	chainID *big.Int
	domain  common.Hash
}

// signedOrder es la orden firmada tal y como viaja en el POST.
type signedOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          int    `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewSigner parsea la clave privada (con o sin 0x). Si multiSig está vacío
// el maker es la propia dirección de la clave.
func NewSigner(privateKeyHex, multiSig string, chainID int64) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("auth: invalid private key: %w", err)
	}
	if chainID <= 0 {
		return nil, errors.New("auth: chain id must be positive")
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	maker := addr
	if multiSig != "" {
		if !common.IsHexAddress(multiSig) {
			return nil, fmt.Errorf("auth: invalid multi_sig_addr %q", multiSig)
		}
		maker = common.HexToAddress(multiSig)
	}
	s := &Signer{
		key:     key,
		address: addr,
		maker:   maker,
		chainID: big.NewInt(chainID),
	}
	s.domain = s.domainSeparator()
	return s, nil
}

// Address devuelve la dirección del EOA firmante.
func (s *Signer) Address() string { return s.address.Hex() }

// Maker devuelve la dirección que emite las órdenes.
func (s *Signer) Maker() string { return s.maker.Hex() }

func (s *Signer) domainSeparator() common.Hash {
	var buf []byte
	buf = append(buf, eip712DomainTypeHash.Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(exchangeDomainName)).Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(exchangeDomainVersion)).Bytes()...)
	buf = append(buf, common.LeftPadBytes(s.chainID.Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// SignOrder construye y firma la orden para req. Compra: maker entrega quote
// y recibe shares. Venta: maker entrega shares y recibe quote.
func (s *Signer) SignOrder(req domain.PlaceOrderRequest) (signedOrder, error) {
	if !req.HasSingleAmount() {
		return signedOrder{}, errors.New("auth: exactly one of amount_in_quote or amount_in_base must be set")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return signedOrder{}, fmt.Errorf("auth: invalid price %q", req.Price)
	}
	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		return signedOrder{}, fmt.Errorf("auth: invalid token id %q", req.TokenID)
	}

	quote, base, err := orderAmounts(req, price)
	if err != nil {
		return signedOrder{}, err
	}

	side := sideBuy
	makerAmt, takerAmt := quote, base
	if req.Side == domain.SideSell {
		side = sideSell
		makerAmt, takerAmt = base, quote
	}

	salt := new(big.Int).SetBytes(uuidBytes())
	zero := big.NewInt(0)
	taker := common.Address{}

	var structBuf []byte
	structBuf = append(structBuf, orderTypeHash.Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(salt.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(s.maker.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(s.address.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(taker.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(tokenID.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(makerAmt.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(takerAmt.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(zero.Bytes(), 32)...) // expiration
	structBuf = append(structBuf, common.LeftPadBytes(zero.Bytes(), 32)...) // nonce
	structBuf = append(structBuf, common.LeftPadBytes(zero.Bytes(), 32)...) // feeRateBps
	structBuf = append(structBuf, common.LeftPadBytes(big.NewInt(int64(side)).Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(big.NewInt(signatureTypeSafe).Bytes(), 32)...)
	structHash := crypto.Keccak256Hash(structBuf)

	var rawBuf []byte
	rawBuf = append(rawBuf, 0x19, 0x01)
	rawBuf = append(rawBuf, s.domain.Bytes()...)
	rawBuf = append(rawBuf, structHash.Bytes()...)
	digest := crypto.Keccak256Hash(rawBuf)

	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return signedOrder{}, fmt.Errorf("auth: sign order: %w", err)
	}
	sig[64] += 27

	return signedOrder{
		Salt:          salt.String(),
		Maker:         s.maker.Hex(),
		Signer:        s.address.Hex(),
		Taker:         taker.Hex(),
		TokenID:       tokenID.String(),
		MakerAmount:   makerAmt.String(),
		TakerAmount:   takerAmt.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: signatureTypeSafe,
		Signature:     "0x" + hex.EncodeToString(sig),
	}, nil
}

// orderAmounts devuelve (quote, base) en unidades enteras de 18 decimales.
// El importe que falta se deriva del precio.
func orderAmounts(req domain.PlaceOrderRequest, price decimal.Decimal) (*big.Int, *big.Int, error) {
	var quote, base decimal.Decimal
	if req.AmountInQuote != "" {
		q, err := decimal.NewFromString(req.AmountInQuote)
		if err != nil || !q.IsPositive() {
			return nil, nil, fmt.Errorf("auth: invalid amount_in_quote %q", req.AmountInQuote)
		}
		quote, base = q, q.Div(price)
	} else {
		b, err := decimal.NewFromString(req.AmountInBase)
		if err != nil || !b.IsPositive() {
			return nil, nil, fmt.Errorf("auth: invalid amount_in_base %q", req.AmountInBase)
		}
		base, quote = b, b.Mul(price)
	}
	return toUnits(quote), toUnits(base), nil
}

func toUnits(d decimal.Decimal) *big.Int {
	return d.Mul(unitScale).Truncate(0).BigInt()
}

func uuidBytes() []byte {
	id := uuid.New()
	return id[:]
}

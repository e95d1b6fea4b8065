package repositories

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/bank-system/internal/models"
)

// Fixed field widths of the snapshot record layout.
const (
	nameSize     = 50
	pinSize      = 5
	passwordSize = 9
	txTypeSize   = 20
	txDateSize   = 20
	txTimeSize   = 20

	headerSize     = 4 + 4
	txSize         = txTypeSize + 8 + txDateSize + txTimeSize
	accountFixSize = 4 + nameSize + 8 + pinSize + passwordSize + 4 + 4
)

// ErrCorruptSnapshot is returned when a snapshot cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

var byteOrder = binary.LittleEndian

func recordSize(slots int) int {
	return accountFixSize + slots*txSize
}

// slotsFor returns the number of transaction slots each record needs so that
// no stored history is truncated.
func slotsFor(accounts []*models.Account, capacity int) int {
	slots := capacity
	for _, a := range accounts {
		if len(a.Transactions) > slots {
			slots = len(a.Transactions)
		}
	}
	return slots
}

// encodeSnapshot writes the header followed by one fixed-width record per account.
func encodeSnapshot(w io.Writer, accounts []*models.Account, slots int) error {
	bw := bufio.NewWriter(w)

	header := make([]byte, headerSize)
	byteOrder.PutUint32(header[0:], uint32(len(accounts)))
	byteOrder.PutUint32(header[4:], uint32(slots))
	if _, err := bw.Write(header); err != nil {
		return err
	}

	buf := make([]byte, recordSize(slots))
	for _, a := range accounts {
		clear(buf)
		if err := putAccount(buf, a, slots); err != nil {
			return fmt.Errorf("account %d: %w", a.AccountNumber, err)
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// decodeSnapshot reads a header and exactly the number of records it announces.
// size is the length of the input; a header announcing more records than size
// can hold is rejected before anything is allocated.
func decodeSnapshot(r io.Reader, size int64) ([]*models.Account, error) {
	br := bufio.NewReader(r)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorruptSnapshot, err)
	}
	count := int32(byteOrder.Uint32(header[0:]))
	slots := int32(byteOrder.Uint32(header[4:]))
	if count < 0 || slots < 0 {
		return nil, fmt.Errorf("%w: count=%d slots=%d", ErrCorruptSnapshot, count, slots)
	}
	rec := int64(accountFixSize) + int64(slots)*txSize
	if size < headerSize || int64(count) > (size-headerSize)/rec {
		return nil, fmt.Errorf("%w: %d records of %d bytes exceed file size %d", ErrCorruptSnapshot, count, rec, size)
	}

	accounts := make([]*models.Account, 0, count)
	if count == 0 {
		return accounts, nil
	}
	buf := make([]byte, recordSize(int(slots)))
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorruptSnapshot, i, err)
		}
		a, err := getAccount(buf, int(slots))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorruptSnapshot, i, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func putAccount(buf []byte, a *models.Account, slots int) error {
	if len(a.Transactions) > slots {
		return fmt.Errorf("%d transactions exceed %d slots", len(a.Transactions), slots)
	}

	off := 0
	byteOrder.PutUint32(buf[off:], uint32(int32(a.AccountNumber)))
	off += 4
	if err := putString(buf[off:off+nameSize], "name", a.Name); err != nil {
		return err
	}
	off += nameSize
	balance, err := toCents(a.Balance)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	byteOrder.PutUint64(buf[off:], uint64(balance))
	off += 8
	if err := putString(buf[off:off+pinSize], "pin", a.PIN); err != nil {
		return err
	}
	off += pinSize
	if err := putString(buf[off:off+passwordSize], "password", a.Password); err != nil {
		return err
	}
	off += passwordSize
	byteOrder.PutUint32(buf[off:], uint32(len(a.Transactions)))
	off += 4
	var active uint32
	if a.IsActive {
		active = 1
	}
	byteOrder.PutUint32(buf[off:], active)
	off += 4

	for _, tx := range a.Transactions {
		if err := putString(buf[off:off+txTypeSize], "type", string(tx.Type)); err != nil {
			return err
		}
		off += txTypeSize
		amount, err := toCents(tx.Amount)
		if err != nil {
			return fmt.Errorf("transaction amount: %w", err)
		}
		byteOrder.PutUint64(buf[off:], uint64(amount))
		off += 8
		if err := putString(buf[off:off+txDateSize], "date", tx.Date); err != nil {
			return err
		}
		off += txDateSize
		if err := putString(buf[off:off+txTimeSize], "time", tx.Time); err != nil {
			return err
		}
		off += txTimeSize
	}
	return nil
}

func getAccount(buf []byte, slots int) (*models.Account, error) {
	a := &models.Account{}

	off := 0
	a.AccountNumber = int(int32(byteOrder.Uint32(buf[off:])))
	off += 4
	a.Name = getString(buf[off : off+nameSize])
	off += nameSize
	a.Balance = fromCents(int64(byteOrder.Uint64(buf[off:])))
	off += 8
	a.PIN = getString(buf[off : off+pinSize])
	off += pinSize
	a.Password = getString(buf[off : off+passwordSize])
	off += passwordSize
	n := int(int32(byteOrder.Uint32(buf[off:])))
	off += 4
	a.IsActive = byteOrder.Uint32(buf[off:]) != 0
	off += 4

	if n < 0 || n > slots {
		return nil, fmt.Errorf("transaction count %d outside [0,%d]", n, slots)
	}

	a.Transactions = make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		var tx models.Transaction
		tx.Type = models.TransactionType(getString(buf[off : off+txTypeSize]))
		off += txTypeSize
		tx.Amount = fromCents(int64(byteOrder.Uint64(buf[off:])))
		off += 8
		tx.Date = getString(buf[off : off+txDateSize])
		off += txDateSize
		tx.Time = getString(buf[off : off+txTimeSize])
		off += txTimeSize
		a.Transactions = append(a.Transactions, tx)
	}
	return a, nil
}

// putString copies s into the NUL-padded field dst.
func putString(dst []byte, field, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("%s is %d bytes, field holds %d", field, len(s), len(dst))
	}
	copy(dst, s)
	return nil
}

func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}

// toCents converts d to whole cents, failing when the result does not fit in int64.
func toCents(d decimal.Decimal) (int64, error) {
	c := d.Shift(2).Round(0).BigInt()
	if !c.IsInt64() {
		return 0, fmt.Errorf("%s does not fit in int64 cents", d.String())
	}
	return c.Int64(), nil
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

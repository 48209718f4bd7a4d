package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// rowSpan separates rows in the vacancy zset: a vacant seat is scored
// row*rowSpan + column, so one row is one contiguous score range.
const rowSpan = 1 << 20

// Every key a script touches is passed in KEYS, and all keys share one
// hash tag, so each script runs against a single cluster slot.
//
//	{p}:layout   hash   seat id -> "row:col"
//	{p}:booked   hash   booked seat id -> booking id
//	{p}:rows     zset   row numbers scored by themselves
//	{p}:vacant   zset   vacant seat ids scored by row*rowSpan + column
//
// The vacancy of a row is the count of its score range, so counts and
// flags change inside the same script and cannot drift.
var (
	snapshotScript = redis.NewScript(`
		local span = tonumber(ARGV[1])
		local rows = redis.call('ZRANGE', KEYS[1], 0, -1)
		local out = {}
		for _, r in ipairs(rows) do
			local lo = tonumber(r) * span
			out[#out + 1] = r
			out[#out + 1] = redis.call('ZCOUNT', KEYS[2], tostring(lo), tostring(lo + span - 1))
		end
		return out
	`)

	commitScript = redis.NewScript(`
		local layout, booked, vacant, owner = KEYS[1], KEYS[2], KEYS[3], ARGV[2]
		for i = 3, #ARGV do
			if not redis.call('HGET', layout, ARGV[i]) then return -1 end
			if redis.call('HEXISTS', booked, ARGV[i]) == 1 then return 0 end
		end
		for i = 3, #ARGV do
			redis.call('HSET', booked, ARGV[i], owner)
			redis.call('ZREM', vacant, ARGV[i])
		end
		return 1
	`)

	releaseScript = redis.NewScript(`
		local layout, booked, vacant = KEYS[1], KEYS[2], KEYS[3]
		local span, owner = tonumber(ARGV[1]), ARGV[2]
		for i = 3, #ARGV do
			if not redis.call('HGET', layout, ARGV[i]) then return -1 end
		end
		local n = 0
		for i = 3, #ARGV do
			if redis.call('HGET', booked, ARGV[i]) == owner then
				redis.call('HDEL', booked, ARGV[i])
				local row, col = string.match(redis.call('HGET', layout, ARGV[i]), '^(%d+):(%d+)$')
				redis.call('ZADD', vacant, tostring(tonumber(row) * span + tonumber(col)), ARGV[i])
				n = n + 1
			end
		end
		return n
	`)

	resetScript = redis.NewScript(`
		local layout, booked, vacant = KEYS[1], KEYS[2], KEYS[3]
		local span = tonumber(ARGV[1])
		local ids = redis.call('HKEYS', booked)
		for _, id in ipairs(ids) do
			local row, col = string.match(redis.call('HGET', layout, id), '^(%d+):(%d+)$')
			redis.call('ZADD', vacant, tostring(tonumber(row) * span + tonumber(col)), id)
		end
		redis.call('DEL', booked)
		return #ids
	`)

	seedScript = redis.NewScript(`
		local layout, rows, vacant = KEYS[1], KEYS[2], KEYS[3]
		local span = tonumber(ARGV[1])
		if redis.call('EXISTS', layout) == 1 then return 0 end
		local n = 0
		for i = 2, #ARGV, 3 do
			local id, row, col = ARGV[i], ARGV[i + 1], ARGV[i + 2]
			redis.call('HSET', layout, id, row .. ':' .. col)
			redis.call('ZADD', vacant, tostring(tonumber(row) * span + tonumber(col)), id)
			redis.call('ZADD', rows, row, row)
			n = n + 1
		end
		return n
	`)
)

// RedisSeatRepo stores the inventory in Redis.  Every mutation is a Lua
// script, which Redis runs atomically, so concurrent servers sharing one
// Redis never double-book a seat.
type RedisSeatRepo struct {
	rdb    *redis.Client
	layout string
	booked string
	rows   string
	vacant string
}

// NewRedisSeatRepo returns a repository keyed under prefix ("seats" when
// empty).
func NewRedisSeatRepo(rdb *redis.Client, prefix string) *RedisSeatRepo {
	if prefix == "" {
		prefix = "seats"
	}
	tag := "{" + prefix + "}"
	return &RedisSeatRepo{
		rdb:    rdb,
		layout: tag + ":layout",
		booked: tag + ":booked",
		rows:   tag + ":rows",
		vacant: tag + ":vacant",
	}
}

func (r *RedisSeatRepo) Snapshot(ctx context.Context) (model.Snapshot, error) {
	vals, err := snapshotScript.Run(ctx, r.rdb, []string{r.rows, r.vacant}, rowSpan).Slice()
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "redis snapshot")
	}
	snap := model.Snapshot{Rows: make([]model.RowVacancy, 0, len(vals)/2)}
	for i := 0; i+1 < len(vals); i += 2 {
		row, err := toInt(vals[i])
		if err != nil {
			return model.Snapshot{}, errors.Wrap(err, "redis snapshot row")
		}
		v, err := toInt(vals[i+1])
		if err != nil {
			return model.Snapshot{}, errors.Wrap(err, "redis snapshot vacancy")
		}
		snap.Rows = append(snap.Rows, model.RowVacancy{Row: row, Vacant: v})
		snap.TotalVacant += v
	}
	return snap, nil
}

func (r *RedisSeatRepo) VacantSeatsInRow(ctx context.Context, row, limit int) ([]model.Seat, error) {
	if limit <= 0 {
		return nil, nil
	}
	lo := int64(row) * rowSpan
	zs, err := r.rdb.ZRangeByScoreWithScores(ctx, r.vacant, &redis.ZRangeBy{
		Min:   strconv.FormatInt(lo, 10),
		Max:   strconv.FormatInt(lo+rowSpan-1, 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis vacant seats")
	}
	out := make([]model.Seat, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "redis seat id %q", member)
		}
		out = append(out, model.Seat{ID: id, Row: row, Column: int(int64(z.Score) - lo)})
	}
	return out, nil
}

func (r *RedisSeatRepo) TryCommit(ctx context.Context, owner string, ids []uint64) (bool, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return true, nil
	}
	n, err := commitScript.Run(ctx, r.rdb, r.seatKeys(), r.idArgs(owner, ids)...).Int64()
	if err != nil {
		return false, errors.Wrap(err, "redis commit")
	}
	switch n {
	case -1:
		return false, ErrSeatNotFound
	case 0:
		return false, nil
	}
	return true, nil
}

// Release vacates the seats among ids that owner still holds.
func (r *RedisSeatRepo) Release(ctx context.Context, owner string, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	n, err := releaseScript.Run(ctx, r.rdb, r.seatKeys(), r.idArgs(owner, ids)...).Int64()
	if err != nil {
		return errors.Wrap(err, "redis release")
	}
	if n < 0 {
		return ErrSeatNotFound
	}
	return nil
}

func (r *RedisSeatRepo) Reset(ctx context.Context) error {
	if err := resetScript.Run(ctx, r.rdb, r.seatKeys(), rowSpan).Err(); err != nil {
		return errors.Wrap(err, "redis reset")
	}
	return nil
}

// Seats reads the layout and the booked hash in one MULTI block.
func (r *RedisSeatRepo) Seats(ctx context.Context) ([]model.Seat, error) {
	var (
		layout *redis.MapStringStringCmd
		booked *redis.MapStringStringCmd
	)
	if _, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		layout = p.HGetAll(ctx, r.layout)
		booked = p.HGetAll(ctx, r.booked)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "redis seats")
	}

	bookedBy := booked.Val()
	out := make([]model.Seat, 0, len(layout.Val()))
	for member, pos := range layout.Val() {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "redis seat id %q", member)
		}
		row, col, err := parsePos(pos)
		if err != nil {
			return nil, err
		}
		_, isBooked := bookedBy[member]
		out = append(out, model.Seat{ID: id, Row: row, Column: col, Booked: isBooked})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

// SeedIfEmpty loads layout when no inventory exists under the prefix and
// returns the number of seats written.
func (r *RedisSeatRepo) SeedIfEmpty(ctx context.Context, layout model.Layout) (int, error) {
	seats := layout.Seats()
	if len(seats) == 0 {
		return 0, ErrEmptyInventory
	}
	args := make([]interface{}, 0, 1+len(seats)*3)
	args = append(args, rowSpan)
	for _, s := range seats {
		if s.Column >= rowSpan {
			return 0, fmt.Errorf("seat %d column %d exceeds %d", s.ID, s.Column, rowSpan-1)
		}
		args = append(args, s.ID, s.Row, s.Column)
	}
	n, err := seedScript.Run(ctx, r.rdb, []string{r.layout, r.rows, r.vacant}, args...).Int()
	if err != nil {
		return 0, errors.Wrap(err, "redis seed")
	}
	return n, nil
}

func (r *RedisSeatRepo) seatKeys() []string {
	return []string{r.layout, r.booked, r.vacant}
}

func (r *RedisSeatRepo) idArgs(owner string, ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, rowSpan, owner)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func parsePos(pos string) (int, int, error) {
	rs, cs, ok := strings.Cut(pos, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed seat position %q", pos)
	}
	row, err := strconv.Atoi(rs)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "seat position %q", pos)
	}
	col, err := strconv.Atoi(cs)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "seat position %q", pos)
	}
	return row, col, nil
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	}
	return 0, fmt.Errorf("unexpected script value %T", v)
}

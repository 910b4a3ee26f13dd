package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/mock"
)

var (
	firstNames = []string{"Ava", "Liam", "Maya", "Noah", "Zoe", "Ethan", "Iris", "Omar", "Lena", "Caleb", "Nina", "Hugo"}
	lastNames  = []string{"Garcia", "Nguyen", "Patel", "Smith", "Kim", "Lopez", "Okafor", "Rossi", "Cohen", "Silva", "Walker", "Chen"}
	streets    = []string{"Main St", "Oak Ave", "Elm St", "Market St", "Pine Rd", "Cedar Ln", "Lake Dr", "Hill Blvd"}
)

// SeedOptions：种子数据规模
// 约束：零值字段取默认值；Seed 相同则生成结果相同
type SeedOptions struct {
	States          []string
	CitiesPerState  int
	StoresPerCity   int
	SellersPerState int
	OrdersPerStore  int
	BatchSize       int
	Seed            uint64
	Now             time.Time
}

func (o SeedOptions) withDefaults() SeedOptions {
	if len(o.States) == 0 {
		o.States = []string{"California", "Texas", "New York", "Florida", "Illinois", "Washington"}
	}
	if o.CitiesPerState <= 0 {
		o.CitiesPerState = 6
	}
	if o.StoresPerCity <= 0 {
		o.StoresPerCity = 4
	}
	if o.SellersPerState <= 0 {
		o.SellersPerState = 5
	}
	if o.OrdersPerStore <= 0 {
		o.OrdersPerStore = 12
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

type SellerRow struct {
	ID              int64
	FirstName       string
	LastName        string
	Address         string
	City            string
	State           string
	Zip             string
	Lat, Lng        float64
	TotalGMV        float64
	GMVLastMonth    float64
	GMVMTD          float64
	StoresLastMonth int
	OrdersMTD       int
}

func (s SellerRow) FullName() string { return s.FirstName + " " + s.LastName }

type StoreRow struct {
	ID              int64
	LatestSellerID  int64
	SellerFirstName string
	SellerLastName  string
	Name            string
	Address         string
	City            string
	State           string
	Zip             string
	DMA             string
	Lat, Lng        float64
	LifetimeGMV     float64
	LifetimeOrders  int
	GMVLastMonth    float64
	GMVCurrentMonth float64
	OrdersLastMonth int
}

type OrderRow struct {
	ID        int64
	StoreID   int64
	SellerID  int64
	GMV       float64
	CreatedAt time.Time
}

// Dataset：一次生成的全部行
type Dataset struct {
	Sellers []SellerRow
	Stores  []StoreRow
	Orders  []OrderRow
}

// Generate：生成自洽的门店、销售方与订单
// 背景：子区域名与坐标取自占位数据生成器，保证本地数仓与占位数据在地图上形态一致
// 约束：门店与销售方的月度聚合列由订单推导，LATEST_SELLER_ID 为最近一笔订单的销售方
func Generate(opt SeedOptions) Dataset {
	opt = opt.withDefaults()
	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x5eed5eed))
	gen := mock.NewSeeded(opt.Seed)
	curMonth := monthStart(opt.Now)
	lastMonth := curMonth.AddDate(0, -1, 0)

	var ds Dataset
	sellerID, storeID, orderID := int64(500), int64(1000), int64(1)
	for _, st := range opt.States {
		_, name, ok := geocode.Resolve(st)
		if !ok {
			logger.L().Warn("seed_unknown_state", "state", st)
			continue
		}
		cities := gen.GenerateSubRegions(name)
		if len(cities) > opt.CitiesPerState {
			cities = cities[:opt.CitiesPerState]
		}

		firstSeller := len(ds.Sellers)
		for i := 0; i < opt.SellersPerState; i++ {
			c := cities[i%len(cities)]
			ds.Sellers = append(ds.Sellers, SellerRow{
				ID:        sellerID,
				FirstName: firstNames[rng.IntN(len(firstNames))],
				LastName:  lastNames[rng.IntN(len(lastNames))],
				Address:   address(rng),
				City:      titleCase(c.City),
				State:     name,
				Zip:       fmt.Sprintf("%05d", rng.IntN(99999)+1),
				Lat:       c.Latitude + jitter(rng, 0.08),
				Lng:       c.Longitude + jitter(rng, 0.08),
			})
			sellerID++
		}
		sellerIdx := func() int { return firstSeller + rng.IntN(opt.SellersPerState) }

		for _, c := range cities {
			for j := 0; j < opt.StoresPerCity; j++ {
				s := StoreRow{
					ID:      storeID,
					Name:    fmt.Sprintf("%s Market #%d", titleCase(c.City), j+1),
					Address: address(rng),
					City:    titleCase(c.City),
					State:   name,
					Zip:     fmt.Sprintf("%05d", rng.IntN(99999)+1),
					DMA:     c.City,
					Lat:     c.Latitude + jitter(rng, 0.15),
					Lng:     c.Longitude + jitter(rng, 0.15),
					// 历史订单之外的存量 GMV
					LifetimeGMV:    cents(rng.Float64() * 20000),
					LifetimeOrders: rng.IntN(40),
				}
				// 每家门店固定 1~3 个常用销售方
				pool := []int{sellerIdx(), sellerIdx(), sellerIdx()}[:1+rng.IntN(3)]
				var latest time.Time
				for k := 0; k < opt.OrdersPerStore; k++ {
					si := pool[rng.IntN(len(pool))]
					at := opt.Now.Add(-time.Duration(rng.IntN(90*24*60)) * time.Minute)
					o := OrderRow{ID: orderID, StoreID: s.ID, SellerID: ds.Sellers[si].ID, GMV: cents(20 + rng.Float64()*480), CreatedAt: at}
					orderID++
					ds.Orders = append(ds.Orders, o)

					seller := &ds.Sellers[si]
					s.LifetimeGMV = cents(s.LifetimeGMV + o.GMV)
					s.LifetimeOrders++
					seller.TotalGMV = cents(seller.TotalGMV + o.GMV)
					switch {
					case !at.Before(curMonth):
						s.GMVCurrentMonth = cents(s.GMVCurrentMonth + o.GMV)
						seller.GMVMTD = cents(seller.GMVMTD + o.GMV)
						seller.OrdersMTD++
					case !at.Before(lastMonth):
						s.GMVLastMonth = cents(s.GMVLastMonth + o.GMV)
						s.OrdersLastMonth++
						seller.GMVLastMonth = cents(seller.GMVLastMonth + o.GMV)
					}
					if at.After(latest) {
						latest = at
						s.LatestSellerID = seller.ID
						s.SellerFirstName = seller.FirstName
						s.SellerLastName = seller.LastName
					}
				}
				ds.Stores = append(ds.Stores, s)
				storeID++
			}
		}
	}
	countStoresLastMonth(&ds, lastMonth, curMonth)
	return ds
}

func countStoresLastMonth(ds *Dataset, from, to time.Time) {
	seen := map[[2]int64]bool{}
	per := map[int64]int{}
	for _, o := range ds.Orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		k := [2]int64{o.SellerID, o.StoreID}
		if !seen[k] {
			seen[k] = true
			per[o.SellerID]++
		}
	}
	for i := range ds.Sellers {
		ds.Sellers[i].StoresLastMonth = per[ds.Sellers[i].ID]
	}
}

// Insert：按批次事务写入（销售方 -> 门店 -> 订单）
// 背景：每 BatchSize 行提交一次，降低锁持有与 WAL 压力
func Insert(ctx context.Context, db *sql.DB, ds Dataset, batch int) error {
	if batch <= 0 {
		batch = 500
	}
	err := insertBatched(ctx, db, "sellers",
		`INSERT INTO SELLERS(SELLER_ID,SELLER_FIRST_NAME,SELLER_LAST_NAME,SELLER_FULL_NAME,SELLER_ADDRESS,SELLER_CITY,SELLER_STATE,SELLER_ZIP_CODE,LATITUDE,LONGITUDE,SELLER_TOTAL_GMV,GMV_LAST_MONTH,GMV_MTD,STORES_LAST_MONTH,ORDERS_MTD)
         VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		len(ds.Sellers), batch, func(i int) []any {
			s := ds.Sellers[i]
			return []any{s.ID, s.FirstName, s.LastName, s.FullName(), s.Address, s.City, s.State, s.Zip, s.Lat, s.Lng, s.TotalGMV, s.GMVLastMonth, s.GMVMTD, s.StoresLastMonth, s.OrdersMTD}
		})
	if err != nil {
		return err
	}
	err = insertBatched(ctx, db, "stores",
		`INSERT INTO STORES(STORE_ID,SELLER_ID,LATEST_SELLER_ID,SELLER_FIRST_NAME,SELLER_LAST_NAME,STORE_LOCATION_NAME,STORE_ADDRESS,STORE_CITY,STORE_STATE,STORE_ZIP_CODE,STORE_DMA_NAME,LATITUDE,LONGITUDE,STORE_LIFETIME_GMV,STORE_LIFETIME_ORDERS,GMV_LAST_MONTH,GMV_CURRENT_MONTH,ORDERS_LAST_MONTH)
         VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		len(ds.Stores), batch, func(i int) []any {
			s := ds.Stores[i]
			return []any{s.ID, s.LatestSellerID, s.LatestSellerID, s.SellerFirstName, s.SellerLastName, s.Name, s.Address, s.City, s.State, s.Zip, s.DMA, s.Lat, s.Lng, s.LifetimeGMV, s.LifetimeOrders, s.GMVLastMonth, s.GMVCurrentMonth, s.OrdersLastMonth}
		})
	if err != nil {
		return err
	}
	return insertBatched(ctx, db, "orders",
		`INSERT INTO ORDERS(ORDER_ID,STORE_ID,SELLER_ID,ORDER_GMV,ORDER_CREATED_AT) VALUES($1,$2,$3,$4,$5)`,
		len(ds.Orders), batch, func(i int) []any {
			o := ds.Orders[i]
			return []any{o.ID, o.StoreID, o.SellerID, o.GMV, o.CreatedAt}
		})
}

func insertBatched(ctx context.Context, db *sql.DB, table, stmt string, n, batch int, args func(i int) []any) error {
	var (
		tx *sql.Tx
		ps *sql.Stmt
	)
	commit := func() error {
		ps.Close()
		err := tx.Commit()
		tx, ps = nil, nil
		return err
	}
	for i := 0; i < n; i++ {
		if tx == nil {
			var err error
			if tx, err = db.BeginTx(ctx, nil); err != nil {
				return err
			}
			if ps, err = tx.PrepareContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		if _, err := ps.ExecContext(ctx, args(i)...); err != nil {
			ps.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
		if (i+1)%batch == 0 {
			if err := commit(); err != nil {
				return err
			}
			logger.L().Debug("seed_batch_commit", "table", table, "rows", i+1)
		}
	}
	if tx != nil {
		if err := commit(); err != nil {
			return err
		}
	}
	logger.L().Info("seed_table_done", "table", table, "rows", n)
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func cents(v float64) float64 { return math.Round(v*100) / 100 }

func jitter(rng *rand.Rand, spread float64) float64 { return (rng.Float64()*2 - 1) * spread }

func address(rng *rand.Rand) string {
	return fmt.Sprintf("%d %s", 100+rng.IntN(9800), streets[rng.IntN(len(streets))])
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Package profile reads saved account profiles: every owner with its assets,
// orders, wallet history, industry jobs and contracts.
package profile

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/rl1809/asset-vault/internal/core/assettree"
	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/core/service"
	"github.com/rl1809/asset-vault/internal/port"
)

var ErrWrongRootElement = errors.New("wrong root element")

type Reader struct {
	converter *service.Converter
	now       func() time.Time
}

func NewReader(items port.ItemResolver) *Reader {
	return &Reader{
		converter: service.NewConverter(items),
		now:       time.Now,
	}
}

// Load reads a profile file, gzip-compressed or not.
func (r *Reader) Load(path string) (*domain.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Read(f)
}

func (r *Reader) Read(in io.Reader) (*domain.Profile, error) {
	src, err := decompress(in)
	if err != nil {
		return nil, err
	}

	var doc xmlProfile
	if err := xml.NewDecoder(src).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if doc.XMLName.Local != "assets" {
		return nil, fmt.Errorf("%w: %q", ErrWrongRootElement, doc.XMLName.Local)
	}

	now := r.now()
	profile := &domain.Profile{}
	for _, xa := range doc.Accounts {
		account := convertAccount(xa)
		for _, xo := range xa.Owners {
			owner, err := r.convertOwner(xo, false, now)
			if err != nil {
				return nil, err
			}
			account.Owners = append(account.Owners, owner)
		}
		profile.Accounts = append(profile.Accounts, account)
	}
	for _, xk := range doc.KitOwners {
		owner, err := r.convertOwner(xk.xmlOwner, xk.Corporation, now)
		if err != nil {
			return nil, err
		}
		profile.KitOwners = append(profile.KitOwners, &domain.KitOwner{
			Owner:       *owner,
			AccessKey:   xk.AccessKey,
			AccessCred:  xk.AccessCred,
			Expire:      xk.Expire.ptr(),
			AccessMask:  xk.AccessMask,
			Limit:       xk.Limit.ptr(),
			AccountName: xk.AccountName,
			Cursors: domain.ContinuationIDs{
				Journal:      xk.JournalCID,
				Transactions: xk.TransactionsCID,
				Contracts:    xk.ContractsCID,
				IndustryJobs: xk.IndustryJobsCID,
				MarketOrders: xk.MarketOrdersCID,
			},
		})
	}
	return profile, nil
}

func decompress(in io.Reader) (io.Reader, error) {
	br := bufio.NewReader(in)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		return zr, nil
	}
	return br, nil
}

func convertAccount(xa xmlAccount) *domain.Account {
	keyID := xa.UserID
	if xa.KeyID != nil {
		keyID = *xa.KeyID
	}
	vCode := xa.APIKey
	if xa.VCode != nil {
		vCode = *xa.VCode
	}
	name := strconv.Itoa(int(keyID))
	if xa.Name != nil {
		name = *xa.Name
	}
	var expires *time.Time
	if xa.Expires != 0 {
		t := time.UnixMilli(xa.Expires).UTC()
		expires = &t
	}
	return &domain.Account{
		KeyID:                keyID,
		VerificationCode:     vCode,
		Name:                 name,
		CharactersNextUpdate: xa.CharactersNextUpdate.value(),
		AccessMask:           xa.AccessMask,
		Type:                 domain.KeyType(strings.ToUpper(xa.Type)),
		Expires:              expires,
		Invalid:              xa.Invalid,
	}
}

func (r *Reader) convertOwner(xo xmlOwner, corporation bool, now time.Time) (*domain.Owner, error) {
	owner := &domain.Owner{
		ID:          xo.ID,
		Name:        xo.Name,
		Corporation: corporation,
		Show:        xo.Show == nil || *xo.Show,
		Updates: domain.UpdateSchedule{
			AssetsNext:       xo.AssetsNextUpdate.or(now),
			AssetsLast:       xo.AssetsLastUpdate.value(),
			BalanceNext:      xo.BalanceNextUpdate.or(now),
			BalanceLast:      xo.BalanceLastUpdate.value(),
			MarketOrdersNext: xo.MarketOrdersNextUpdate.or(now),
			JournalNext:      xo.JournalNextUpdate.or(now),
			TransactionsNext: xo.TransactionsNextUpdate.or(now),
			IndustryJobsNext: xo.IndustryJobsNextUpdate.or(now),
			ContractsNext:    xo.ContractsNextUpdate.or(now),
			LocationsNext:    xo.LocationsNextUpdate.or(now),
			BlueprintsNext:   xo.BlueprintsNextUpdate.or(now),
		},
	}
	ctx := owner.Context()

	forest, err := r.converter.Tree(flattenAssets(xo.Assets), ctx, assettree.KeepAll)
	if err != nil {
		return nil, fmt.Errorf("owner %d assets: %w", owner.ID, err)
	}
	owner.Assets = forest

	owner.Contracts = make(map[int64]*domain.Contract, len(xo.Contracts))
	for _, xc := range xo.Contracts {
		contract := convertContract(xc)
		contract.Items = r.converter.ResolveContractItems(convertContractItems(xc.Items))
		owner.Contracts[contract.ContractID] = &contract
	}

	balances := make([]domain.AccountBalance, 0, len(xo.Balances))
	for _, xb := range xo.Balances {
		balances = append(balances, domain.AccountBalance{
			AccountID:  xb.AccountID,
			AccountKey: xb.AccountKey,
			Balance:    xb.Balance,
		})
	}
	owner.Balances = r.converter.AccountBalances(balances, ctx)

	orders := make([]domain.MarketOrder, 0, len(xo.MarketOrders))
	for _, xm := range xo.MarketOrders {
		orders = append(orders, convertMarketOrder(xm))
	}
	owner.MarketOrders = r.converter.MarketOrders(orders, owner, false)

	journal := make([]domain.JournalEntry, 0, len(xo.Journal))
	for _, xj := range xo.Journal {
		journal = append(journal, convertJournal(xj))
	}
	owner.Journal = r.converter.Journal(journal, owner, false)

	transactions := make([]domain.Transaction, 0, len(xo.Transactions))
	for _, xt := range xo.Transactions {
		transactions = append(transactions, convertTransaction(xt))
	}
	owner.Transactions = r.converter.Transactions(transactions, owner, false)

	var jobs []domain.IndustryJob
	for _, xi := range xo.IndustryJobs {
		if xi.BlueprintID == nil {
			continue
		}
		jobs = append(jobs, convertIndustryJob(xi))
	}
	owner.IndustryJobs = r.converter.IndustryJobs(jobs, ctx)

	owner.Blueprints = make(map[int64]domain.Blueprint, len(xo.Blueprints))
	for _, xb := range xo.Blueprints {
		owner.Blueprints[xb.ItemID] = domain.Blueprint{
			ItemID:             xb.ItemID,
			LocationID:         xb.LocationID,
			TypeID:             xb.TypeID,
			TypeName:           xb.TypeName,
			FlagID:             xb.FlagID,
			Quantity:           xb.Quantity,
			TimeEfficiency:     xb.TimeEfficiency,
			MaterialEfficiency: xb.MaterialEfficiency,
			Runs:               xb.Runs,
		}
	}
	return owner, nil
}

// flattenAssets turns the nested asset elements into records, depth-first.
// Nested records point at their container's item id.
func flattenAssets(assets []xmlAsset) []domain.InventoryRecord {
	var records []domain.InventoryRecord
	var visit func(list []xmlAsset, container *int64)
	visit = func(list []xmlAsset, container *int64) {
		for i := range list {
			xa := &list[i]
			location := xa.LocationID
			if container != nil {
				location = *container
			}
			records = append(records, domain.InventoryRecord{
				ItemID:      xa.ID,
				LocationID:  location,
				TypeID:      xa.TypeID,
				FlagID:      assetFlag(xa),
				Quantity:    xa.Count,
				RawQuantity: xa.RawQuantity,
				Singleton:   xa.Singleton,
			})
			visit(xa.Assets, &xa.ID)
		}
	}
	visit(assets, nil)
	return records
}

func assetFlag(xa *xmlAsset) int32 {
	if xa.FlagID != nil {
		return *xa.FlagID
	}
	if id, ok := domain.FlagByName(xa.Flag); ok {
		return id
	}
	return domain.FlagNone
}

func convertContract(xc xmlContract) domain.Contract {
	return domain.Contract{
		ContractID:     xc.ContractID,
		AcceptorID:     xc.AcceptorID,
		AssigneeID:     xc.AssigneeID,
		Availability:   strings.ToUpper(xc.Availability),
		Buyout:         xc.Buyout,
		Collateral:     xc.Collateral,
		Price:          xc.Price,
		Reward:         xc.Reward,
		DateAccepted:   xc.DateAccepted.ptr(),
		DateCompleted:  xc.DateCompleted.ptr(),
		DateExpired:    xc.DateExpired.value(),
		DateIssued:     xc.DateIssued.value(),
		StartStationID: xc.StartStationID,
		EndStationID:   xc.EndStationID,
		IssuerID:       xc.IssuerID,
		IssuerCorpID:   xc.IssuerCorpID,
		NumDays:        xc.NumDays,
		Status:         domain.ContractStatus(strings.ToUpper(xc.Status)),
		Title:          xc.Title,
		Type:           domain.ContractType(strings.ToUpper(xc.Type)),
		Volume:         xc.Volume,
		ForCorp:        xc.ForCorp,
	}
}

func convertContractItems(xs []xmlContractItem) []domain.ContractItem {
	items := make([]domain.ContractItem, 0, len(xs))
	for _, xi := range xs {
		items = append(items, domain.ContractItem{
			RecordID:    xi.RecordID,
			TypeID:      xi.TypeID,
			Quantity:    xi.Quantity,
			RawQuantity: xi.RawQuantity,
			Singleton:   xi.Singleton,
			Included:    xi.Included,
		})
	}
	return items
}

func convertMarketOrder(xm xmlMarketOrder) domain.MarketOrder {
	return domain.MarketOrder{
		OrderID:      xm.OrderID,
		CharID:       xm.CharID,
		StationID:    xm.StationID,
		VolEntered:   xm.VolEntered,
		VolRemaining: xm.VolRemaining,
		MinVolume:    xm.MinVolume,
		State:        domain.OrderState(xm.OrderState),
		TypeID:       xm.TypeID,
		Range:        xm.Range,
		AccountKey:   xm.AccountKey,
		Duration:     xm.Duration,
		Escrow:       xm.Escrow,
		Price:        xm.Price,
		Bid:          xm.Bid == 1,
		Issued:       xm.Issued.value(),
	}
}

func convertJournal(xj xmlJournal) domain.JournalEntry {
	return domain.JournalEntry{
		RefID:         xj.RefID,
		RefTypeID:     xj.RefTypeID,
		Date:          xj.Date.value(),
		Amount:        xj.Amount,
		Balance:       xj.Balance,
		ArgID1:        xj.ArgID1,
		ArgName1:      xj.ArgName1,
		OwnerID1:      xj.OwnerID1,
		OwnerID2:      xj.OwnerID2,
		OwnerName1:    xj.OwnerName1,
		OwnerName2:    xj.OwnerName2,
		Owner1TypeID:  xj.Owner1TypeID,
		Owner2TypeID:  xj.Owner2TypeID,
		Reason:        xj.Reason,
		TaxAmount:     xj.TaxAmount,
		TaxReceiverID: xj.TaxReceiverID,
		AccountKey:    xj.AccountKey,
	}
}

func convertTransaction(xt xmlTransaction) domain.Transaction {
	accountKey := domain.DefaultAccountKey
	if xt.AccountKey != nil {
		accountKey = *xt.AccountKey
	}
	return domain.Transaction{
		TransactionID:        xt.TransactionID,
		Date:                 xt.Date.value(),
		Quantity:             xt.Quantity,
		TypeID:               xt.TypeID,
		TypeName:             xt.TypeName,
		Price:                xt.Price,
		ClientID:             xt.ClientID,
		ClientName:           xt.ClientName,
		ClientTypeID:         xt.ClientTypeID,
		CharacterID:          xt.CharacterID,
		CharacterName:        xt.CharacterName,
		StationID:            xt.StationID,
		StationName:          xt.StationName,
		TransactionType:      xt.TransactionType,
		TransactionFor:       xt.TransactionFor,
		JournalTransactionID: xt.JournalTransactionID,
		AccountKey:           accountKey,
	}
}

func convertIndustryJob(xi xmlIndustryJob) domain.IndustryJob {
	job := domain.IndustryJob{
		JobID:                xi.JobID,
		InstallerID:          xi.InstallerID,
		InstallerName:        xi.InstallerName,
		FacilityID:           xi.FacilityID,
		SolarSystemID:        xi.SolarSystemID,
		SolarSystemName:      xi.SolarSystemName,
		StationID:            xi.StationID,
		Activity:             domain.Activity(xi.ActivityID),
		BlueprintID:          *xi.BlueprintID,
		BlueprintTypeID:      xi.BlueprintTypeID,
		BlueprintTypeName:    xi.BlueprintTypeName,
		BlueprintLocationID:  xi.BlueprintLocationID,
		OutputLocationID:     xi.OutputLocationID,
		Runs:                 xi.Runs,
		Cost:                 xi.Cost,
		TeamID:               xi.TeamID,
		LicensedRuns:         xi.LicensedRuns,
		Probability:          xi.Probability,
		ProductTypeName:      xi.ProductTypeName,
		Status:               domain.JobStatus(xi.Status),
		TimeInSeconds:        xi.TimeInSeconds,
		StartDate:            xi.StartDate.value(),
		EndDate:              xi.EndDate.value(),
		PauseDate:            xi.PauseDate.value(),
		CompletedDate:        xi.CompletedDate.value(),
		CompletedCharacterID: xi.CompletedCharacterID,
	}
	if xi.ProductTypeID != 0 {
		product := xi.ProductTypeID
		job.ProductTypeID = &product
	}
	return job
}

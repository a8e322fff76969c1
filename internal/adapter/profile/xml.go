package profile

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// epochMillis is a date attribute written as milliseconds since the epoch.
type epochMillis struct {
	time.Time
}

func (m *epochMillis) UnmarshalText(text []byte) error {
	ms, err := strconv.ParseInt(strings.TrimSpace(string(text)), 10, 64)
	if err != nil {
		return fmt.Errorf("date %q: %w", text, err)
	}
	m.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (m *epochMillis) ptr() *time.Time {
	if m == nil {
		return nil
	}
	t := m.Time
	return &t
}

func (m *epochMillis) or(fallback time.Time) time.Time {
	if m == nil {
		return fallback
	}
	return m.Time
}

func (m *epochMillis) value() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.Time
}

type xmlProfile struct {
	XMLName   xml.Name
	Accounts  []xmlAccount  `xml:"accounts>account"`
	KitOwners []xmlKitOwner `xml:"evekitowners>evekitowner"`
}

type xmlAccount struct {
	KeyID                *int32       `xml:"keyid,attr"`
	UserID               int32        `xml:"userid,attr"`
	VCode                *string      `xml:"vcode,attr"`
	APIKey               string       `xml:"apikey,attr"`
	Name                 *string      `xml:"name,attr"`
	CharactersNextUpdate *epochMillis `xml:"charactersnextupdate,attr"`
	AccessMask           int64        `xml:"accessmask,attr"`
	Type                 string       `xml:"type,attr"`
	Expires              int64        `xml:"expires,attr"`
	Invalid              bool         `xml:"invalid,attr"`
	Owners               []xmlOwner   `xml:"human"`
}

type xmlKitOwner struct {
	xmlOwner
	AccessKey       int32        `xml:"accesskey,attr"`
	AccessCred      string       `xml:"accesscred,attr"`
	Expire          *epochMillis `xml:"expire,attr"`
	AccessMask      int64        `xml:"accessmask,attr"`
	Corporation     bool         `xml:"corporation,attr"`
	Limit           *epochMillis `xml:"limit,attr"`
	AccountName     string       `xml:"accountname,attr"`
	JournalCID      *int64       `xml:"journalcid,attr"`
	TransactionsCID *int64       `xml:"transactionscid,attr"`
	ContractsCID    *int64       `xml:"contractscid,attr"`
	IndustryJobsCID *int64       `xml:"industryjobscid,attr"`
	MarketOrdersCID *int64       `xml:"marketorderscid,attr"`
}

type xmlOwner struct {
	Name                   string       `xml:"name,attr"`
	ID                     int64        `xml:"id,attr"`
	Show                   *bool        `xml:"show,attr"`
	AssetsNextUpdate       *epochMillis `xml:"assetsnextupdate,attr"`
	AssetsLastUpdate       *epochMillis `xml:"assetslastupdate,attr"`
	BalanceNextUpdate      *epochMillis `xml:"balancenextupdate,attr"`
	BalanceLastUpdate      *epochMillis `xml:"balancelastupdate,attr"`
	MarketOrdersNextUpdate *epochMillis `xml:"marketordersnextupdate,attr"`
	JournalNextUpdate      *epochMillis `xml:"journalnextupdate,attr"`
	TransactionsNextUpdate *epochMillis `xml:"wallettransactionsnextupdate,attr"`
	IndustryJobsNextUpdate *epochMillis `xml:"industryjobsnextupdate,attr"`
	ContractsNextUpdate    *epochMillis `xml:"contractsnextupdate,attr"`
	LocationsNextUpdate    *epochMillis `xml:"locationsnextupdate,attr"`
	BlueprintsNextUpdate   *epochMillis `xml:"blueprintsnextupdate,attr"`

	Assets       []xmlAsset       `xml:"assets>asset"`
	Contracts    []xmlContract    `xml:"contracts>contract"`
	Balances     []xmlBalance     `xml:"balances>balance"`
	MarketOrders []xmlMarketOrder `xml:"markerorders>markerorder"`
	Journal      []xmlJournal     `xml:"journals>journal"`
	Transactions []xmlTransaction `xml:"wallettransactions>wallettransaction"`
	IndustryJobs []xmlIndustryJob `xml:"industryjobs>industryjob"`
	Blueprints   []xmlBlueprint   `xml:"blueprints>blueprint"`
}

type xmlAsset struct {
	Count       int64      `xml:"count,attr"`
	ID          int64      `xml:"id,attr"`
	TypeID      int32      `xml:"typeid,attr"`
	LocationID  int64      `xml:"locationid,attr"`
	Singleton   bool       `xml:"singleton,attr"`
	RawQuantity int32      `xml:"rawquantity,attr"`
	FlagID      *int32     `xml:"flagid,attr"`
	Flag        string     `xml:"flag,attr"`
	Assets      []xmlAsset `xml:"asset"`
}

type xmlContract struct {
	AcceptorID     int64             `xml:"acceptorid,attr"`
	AssigneeID     int64             `xml:"assigneeid,attr"`
	Availability   string            `xml:"availability,attr"`
	Buyout         decimal.Decimal   `xml:"buyout,attr"`
	Collateral     decimal.Decimal   `xml:"collateral,attr"`
	ContractID     int64             `xml:"contractid,attr"`
	DateAccepted   *epochMillis      `xml:"dateaccepted,attr"`
	DateCompleted  *epochMillis      `xml:"datecompleted,attr"`
	DateExpired    *epochMillis      `xml:"dateexpired,attr"`
	DateIssued     *epochMillis      `xml:"dateissued,attr"`
	EndStationID   int64             `xml:"endstationid,attr"`
	IssuerCorpID   int64             `xml:"issuercorpid,attr"`
	IssuerID       int64             `xml:"issuerid,attr"`
	NumDays        int32             `xml:"numdays,attr"`
	Price          decimal.Decimal   `xml:"price,attr"`
	Reward         decimal.Decimal   `xml:"reward,attr"`
	StartStationID int64             `xml:"startstationid,attr"`
	Status         string            `xml:"status,attr"`
	Title          string            `xml:"title,attr"`
	Type           string            `xml:"type,attr"`
	Volume         float64           `xml:"volume,attr"`
	ForCorp        bool              `xml:"forcorp,attr"`
	Items          []xmlContractItem `xml:"contractitem"`
}

type xmlContractItem struct {
	Included    bool   `xml:"included,attr"`
	Quantity    int64  `xml:"quantity,attr"`
	RecordID    int64  `xml:"recordid,attr"`
	Singleton   bool   `xml:"singleton,attr"`
	TypeID      int32  `xml:"typeid,attr"`
	RawQuantity *int64 `xml:"rawquantity,attr"`
}

type xmlBalance struct {
	AccountID  int32           `xml:"accountid,attr"`
	AccountKey int32           `xml:"accountkey,attr"`
	Balance    decimal.Decimal `xml:"balance,attr"`
}

type xmlMarketOrder struct {
	OrderID      int64           `xml:"orderid,attr"`
	CharID       int64           `xml:"charid,attr"`
	StationID    int64           `xml:"stationid,attr"`
	VolEntered   int32           `xml:"volentered,attr"`
	VolRemaining int32           `xml:"volremaining,attr"`
	MinVolume    int32           `xml:"minvolume,attr"`
	OrderState   int32           `xml:"orderstate,attr"`
	TypeID       int32           `xml:"typeid,attr"`
	Range        int32           `xml:"range,attr"`
	AccountKey   int32           `xml:"accountkey,attr"`
	Duration     int32           `xml:"duration,attr"`
	Escrow       decimal.Decimal `xml:"escrow,attr"`
	Price        decimal.Decimal `xml:"price,attr"`
	Bid          int32           `xml:"bid,attr"`
	Issued       *epochMillis    `xml:"issued,attr"`
}

type xmlJournal struct {
	Amount        decimal.Decimal  `xml:"amount,attr"`
	ArgID1        int64            `xml:"argid1,attr"`
	ArgName1      string           `xml:"argname1,attr"`
	Balance       decimal.Decimal  `xml:"balance,attr"`
	Date          *epochMillis     `xml:"date,attr"`
	OwnerID1      int64            `xml:"ownerid1,attr"`
	OwnerID2      int64            `xml:"ownerid2,attr"`
	OwnerName1    string           `xml:"ownername1,attr"`
	OwnerName2    string           `xml:"ownername2,attr"`
	Reason        string           `xml:"reason,attr"`
	RefID         int64            `xml:"refid,attr"`
	RefTypeID     int32            `xml:"reftypeid,attr"`
	TaxAmount     *decimal.Decimal `xml:"taxamount,attr"`
	TaxReceiverID *int64           `xml:"taxreceiverid,attr"`
	Owner1TypeID  int32            `xml:"owner1typeid,attr"`
	Owner2TypeID  int32            `xml:"owner2typeid,attr"`
	AccountKey    int32            `xml:"accountkey,attr"`
}

type xmlTransaction struct {
	Date                 *epochMillis    `xml:"transactiondatetime,attr"`
	TransactionID        int64           `xml:"transactionid,attr"`
	Quantity             int32           `xml:"quantity,attr"`
	TypeName             string          `xml:"typename,attr"`
	TypeID               int32           `xml:"typeid,attr"`
	Price                decimal.Decimal `xml:"price,attr"`
	ClientID             int64           `xml:"clientid,attr"`
	ClientName           string          `xml:"clientname,attr"`
	CharacterID          *int64          `xml:"characterid,attr"`
	CharacterName        string          `xml:"charactername,attr"`
	StationID            int64           `xml:"stationid,attr"`
	StationName          string          `xml:"stationname,attr"`
	TransactionType      string          `xml:"transactiontype,attr"`
	TransactionFor       string          `xml:"transactionfor,attr"`
	JournalTransactionID int64           `xml:"journaltransactionid,attr"`
	ClientTypeID         int32           `xml:"clienttypeid,attr"`
	AccountKey           *int32          `xml:"accountkey,attr"`
}

type xmlIndustryJob struct {
	JobID                int64           `xml:"jobid,attr"`
	InstallerID          int64           `xml:"installerid,attr"`
	InstallerName        string          `xml:"installername,attr"`
	FacilityID           int64           `xml:"facilityid,attr"`
	SolarSystemID        int64           `xml:"solarsystemid,attr"`
	SolarSystemName      string          `xml:"solarsystemname,attr"`
	StationID            int64           `xml:"stationid,attr"`
	ActivityID           int32           `xml:"activityid,attr"`
	BlueprintID          *int64          `xml:"blueprintid,attr"`
	BlueprintTypeID      int32           `xml:"blueprinttypeid,attr"`
	BlueprintTypeName    string          `xml:"blueprinttypename,attr"`
	BlueprintLocationID  int64           `xml:"blueprintlocationid,attr"`
	OutputLocationID     int64           `xml:"outputlocationid,attr"`
	Runs                 int32           `xml:"runs,attr"`
	Cost                 decimal.Decimal `xml:"cost,attr"`
	TeamID               int64           `xml:"teamid,attr"`
	LicensedRuns         int32           `xml:"licensedruns,attr"`
	Probability          float64         `xml:"probability,attr"`
	ProductTypeID        int32           `xml:"producttypeid,attr"`
	ProductTypeName      string          `xml:"producttypename,attr"`
	Status               int32           `xml:"status,attr"`
	TimeInSeconds        int32           `xml:"timeinseconds,attr"`
	StartDate            *epochMillis    `xml:"startdate,attr"`
	EndDate              *epochMillis    `xml:"enddate,attr"`
	PauseDate            *epochMillis    `xml:"pausedate,attr"`
	CompletedDate        *epochMillis    `xml:"completeddate,attr"`
	CompletedCharacterID int64           `xml:"completedcharacterid,attr"`
}

type xmlBlueprint struct {
	ItemID             int64  `xml:"itemid,attr"`
	LocationID         int64  `xml:"locationid,attr"`
	TypeID             int32  `xml:"typeid,attr"`
	TypeName           string `xml:"typename,attr"`
	FlagID             int32  `xml:"flagid,attr"`
	Quantity           int32  `xml:"quantity,attr"`
	TimeEfficiency     int32  `xml:"timeefficiency,attr"`
	MaterialEfficiency int32  `xml:"materialefficiency,attr"`
	Runs               int32  `xml:"runs,attr"`
}

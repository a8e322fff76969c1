package profile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-vault/internal/core/assettree"
	"github.com/rl1809/asset-vault/internal/core/domain"
)

const sampleProfile = `<?xml version="1.0" encoding="UTF-8"?>
<assets>
  <accounts>
    <account keyid="4000123" vcode="secret" charactersnextupdate="1714564800000" accessmask="268435455" type="character" expires="0">
      <human name="Pilot" id="90000001" show="true" assetsnextupdate="1714568400000" assetslastupdate="1714564800000">
        <assets>
          <asset count="1" id="1001" typeid="587" locationid="60003760" singleton="true" rawquantity="-1" flagid="4">
            <asset count="500" id="1002" typeid="34" locationid="0" singleton="false" flagid="5"/>
            <asset count="1" id="1003" typeid="34" locationid="1001" singleton="false" flag="DroneBay"/>
          </asset>
          <asset count="3" id="1004" typeid="34" locationid="60008494" singleton="false" flagid="4"/>
        </assets>
        <contracts>
          <contract acceptorid="0" assigneeid="0" availability="Public" buyout="0" collateral="0" contractid="77" dateexpired="1715169600000" dateissued="1714564800000" endstationid="60003760" issuercorpid="98000001" issuerid="90000001" numdays="0" price="1500000.50" reward="0" startstationid="60003760" status="Outstanding" title="Rifter" type="ItemExchange" volume="2500" forcorp="false">
            <contractitem included="true" quantity="1" recordid="7701" singleton="false" typeid="587"/>
            <contractitem included="false" quantity="100" recordid="7702" singleton="false" typeid="34" rawquantity="-1"/>
          </contract>
        </contracts>
        <balances>
          <balance accountid="1" accountkey="1000" balance="123456789.12"/>
        </balances>
        <markerorders>
          <markerorder orderid="501" charid="90000001" stationid="60003760" volentered="100" volremaining="40" minvolume="1" orderstate="0" typeid="34" range="32767" accountkey="1000" duration="90" escrow="0" price="5.25" bid="0" issued="1714564800000"/>
          <markerorder orderid="502" charid="90000001" stationid="60003760" volentered="10" volremaining="10" minvolume="1" orderstate="0" typeid="587" range="-1" accountkey="1000" duration="90" escrow="400000" price="400000" bid="1" issued="1714564800000"/>
        </markerorders>
        <journals>
          <journal amount="-1000.5" argid1="0" argname1="" balance="123456789.12" date="1714564800000" ownerid1="90000001" ownerid2="1000132" ownername1="Pilot" ownername2="SCC" reason="" refid="9001" reftypeid="54" taxamount="12.5" accountkey="1000"/>
        </journals>
        <wallettransactions>
          <wallettransaction transactiondatetime="1714564800000" transactionid="8001" quantity="10" typename="Tritanium" typeid="34" price="5.5" clientid="90000002" clientname="Buyer" stationid="60003760" stationname="Jita IV - Moon 4" transactiontype="sell" transactionfor="personal" journaltransactionid="9002" clienttypeid="1373"/>
        </wallettransactions>
        <industryjobs>
          <industryjob jobid="601" installerid="90000001" installername="Pilot" facilityid="60003760" solarsystemid="30000142" solarsystemname="Jita" stationid="60003760" activityid="1" blueprintid="1005" blueprinttypeid="691" blueprinttypename="Rifter Blueprint" blueprintlocationid="60003760" outputlocationid="60003760" runs="2" cost="1500" teamid="0" licensedruns="10" probability="1" producttypeid="587" producttypename="Rifter" status="1" timeinseconds="3600" startdate="1714564800000" enddate="1714568400000" pausedate="0" completeddate="0" completedcharacterid="0"/>
          <industryjob jobid="602" status="1"/>
        </industryjobs>
        <blueprints>
          <blueprint itemid="1005" locationid="60003760" typeid="691" typename="Rifter Blueprint" flagid="4" quantity="-2" timeefficiency="20" materialefficiency="10" runs="5"/>
        </blueprints>
      </human>
    </account>
    <account userid="11" apikey="legacy">
      <human name="Alt" id="90000003" show="false"/>
    </account>
  </accounts>
  <evekitowners>
    <evekitowner accesskey="55" accesscred="cred" expire="1730000000000" accessmask="1" corporation="true" accountname="Kit" journalcid="123" marketorderscid="456" name="Corp" id="98000001"/>
  </evekitowners>
</assets>`

var readTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type stubItems map[int32]domain.Item

func (s stubItems) Item(typeID int32) domain.Item {
	if item, ok := s[typeID]; ok {
		return item
	}
	return domain.UnknownItem(typeID)
}

func newTestReader() *Reader {
	r := NewReader(stubItems{
		34:  {TypeID: 34, Name: "Tritanium"},
		587: {TypeID: 587, Name: "Rifter"},
		691: {TypeID: 691, Name: "Rifter Blueprint"},
	})
	r.now = func() time.Time { return readTime }
	return r
}

func TestRead_Accounts(t *testing.T) {
	profile, err := newTestReader().Read(strings.NewReader(sampleProfile))
	require.NoError(t, err)

	require.Len(t, profile.Accounts, 2)
	primary := profile.Accounts[0]
	assert.Equal(t, int32(4000123), primary.KeyID)
	assert.Equal(t, "secret", primary.VerificationCode)
	assert.Equal(t, "4000123", primary.Name, "name defaults to the key id")
	assert.Equal(t, domain.KeyTypeCharacter, primary.Type)
	assert.Nil(t, primary.Expires)
	assert.Equal(t, time.UnixMilli(1714564800000).UTC(), primary.CharactersNextUpdate)

	legacy := profile.Accounts[1]
	assert.Equal(t, int32(11), legacy.KeyID)
	assert.Equal(t, "legacy", legacy.VerificationCode)
	require.Len(t, legacy.Owners, 1)
	assert.False(t, legacy.Owners[0].Show)
	assert.Equal(t, readTime, legacy.Owners[0].Updates.AssetsNext, "missing next update defaults to the read time")
	assert.True(t, legacy.Owners[0].Updates.AssetsLast.IsZero())
}

func TestRead_Assets(t *testing.T) {
	profile, err := newTestReader().Read(strings.NewReader(sampleProfile))
	require.NoError(t, err)

	pilot := profile.Accounts[0].Owners[0]
	assert.Equal(t, "Pilot", pilot.Name)
	assert.True(t, pilot.Show)

	forest := pilot.Assets
	require.Len(t, forest, 2)
	ship := forest[0]
	assert.Equal(t, "Rifter", ship.Item.Name)
	assert.Equal(t, int32(-1), ship.Record.RawQuantity)
	require.Len(t, ship.Children, 2)

	cargo := ship.Children[0]
	assert.Equal(t, int64(1002), cargo.Record.ItemID)
	assert.Equal(t, int64(1001), cargo.Record.LocationID)
	assert.Equal(t, int64(60003760), cargo.LocationID)
	assert.Equal(t, domain.FlagCargo, cargo.Record.FlagID)
	require.Len(t, cargo.Ancestors, 1)
	assert.Same(t, ship, cargo.Parent())

	drone := ship.Children[1]
	assert.Equal(t, domain.FlagDroneBay, drone.Record.FlagID, "legacy flag names are mapped")

	assert.Equal(t, int64(60008494), forest[1].LocationID)
	assert.Equal(t, int64(3), forest[1].Record.Quantity)
}

func TestRead_Collections(t *testing.T) {
	profile, err := newTestReader().Read(strings.NewReader(sampleProfile))
	require.NoError(t, err)
	pilot := profile.Accounts[0].Owners[0]

	require.Contains(t, pilot.Contracts, int64(77))
	contract := pilot.Contracts[77]
	assert.Equal(t, domain.ContractStatusOutstanding, contract.Status)
	assert.Equal(t, domain.ContractTypeItemExchange, contract.Type)
	assert.True(t, contract.Price.Equal(decimal.RequireFromString("1500000.5")))
	assert.Nil(t, contract.DateAccepted)
	require.Len(t, contract.Items, 2)
	assert.Equal(t, "Rifter", contract.Items[0].Item.Name)
	require.NotNil(t, contract.Items[1].RawQuantity)
	assert.Equal(t, int64(-1), *contract.Items[1].RawQuantity)

	require.Len(t, pilot.Balances, 1)
	assert.True(t, pilot.Balances[0].Balance.Equal(decimal.RequireFromString("123456789.12")))
	assert.Equal(t, pilot.ID, pilot.Balances[0].OwnerID)

	require.Len(t, pilot.MarketOrders, 2)
	assert.False(t, pilot.MarketOrders[0].IsBuyOrder())
	assert.True(t, pilot.MarketOrders[1].IsBuyOrder())
	assert.Equal(t, "Tritanium", pilot.MarketOrders[0].Item.Name)

	require.Len(t, pilot.Journal, 1)
	require.NotNil(t, pilot.Journal[0].TaxAmount)
	assert.True(t, pilot.Journal[0].TaxAmount.Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, pilot.Journal[0].TaxReceiverID)

	require.Len(t, pilot.Transactions, 1)
	tx := pilot.Transactions[0]
	assert.Equal(t, int64(8001), tx.TransactionID)
	assert.Equal(t, int64(90000002), tx.ClientID)
	assert.Equal(t, int64(9002), tx.JournalTransactionID)
	assert.Equal(t, int32(1373), tx.ClientTypeID)
	assert.Equal(t, domain.DefaultAccountKey, tx.AccountKey)
	assert.True(t, tx.Total().Equal(decimal.NewFromInt(55)))

	require.Len(t, pilot.IndustryJobs, 1, "jobs without a blueprint id are skipped")
	job := pilot.IndustryJobs[0]
	require.NotNil(t, job.ProductTypeID)
	assert.Equal(t, int32(587), *job.ProductTypeID)
	assert.Equal(t, "Rifter", job.Output.Name)
	assert.Equal(t, time.UnixMilli(1714568400000).UTC(), job.EndDate)

	require.Contains(t, pilot.Blueprints, int64(1005))
	assert.True(t, pilot.Blueprints[1005].IsCopy())
}

func TestRead_KitOwners(t *testing.T) {
	profile, err := newTestReader().Read(strings.NewReader(sampleProfile))
	require.NoError(t, err)

	require.Len(t, profile.KitOwners, 1)
	kit := profile.KitOwners[0]
	assert.Equal(t, "Corp", kit.Name)
	assert.True(t, kit.Corporation)
	assert.Equal(t, int32(55), kit.AccessKey)
	require.NotNil(t, kit.Expire)
	assert.Nil(t, kit.Limit)
	require.NotNil(t, kit.Cursors.Journal)
	assert.Equal(t, int64(123), *kit.Cursors.Journal)
	assert.Nil(t, kit.Cursors.Contracts)

	owners := profile.Owners()
	require.Len(t, owners, 3)
	assert.Equal(t, int64(98000001), owners[2].ID)
	assert.Contains(t, profile.OwnerIndex(), int64(90000003))
}

func TestRead_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleProfile))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "profile.xml.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	profile, err := newTestReader().Load(path)
	require.NoError(t, err)
	assert.Len(t, profile.Owners(), 3)
}

func TestRead_WrongRoot(t *testing.T) {
	_, err := newTestReader().Read(strings.NewReader(`<settings/>`))
	assert.ErrorIs(t, err, ErrWrongRootElement)
}

func TestRead_Malformed(t *testing.T) {
	_, err := newTestReader().Read(strings.NewReader(`<assets><accounts>`))
	assert.ErrorContains(t, err, "parse profile")

	_, err = newTestReader().Read(strings.NewReader(`<assets><accounts><account charactersnextupdate="soon"/></accounts></assets>`))
	assert.Error(t, err)
}

func TestRead_DuplicateAssetIDs(t *testing.T) {
	doc := `<assets><accounts><account keyid="1"><human name="P" id="5"><assets>
		<asset id="1" typeid="34" locationid="60003760" count="1"/>
		<asset id="1" typeid="34" locationid="60003760" count="1"/>
	</assets></human></account></accounts></assets>`

	_, err := newTestReader().Read(strings.NewReader(doc))
	assert.ErrorIs(t, err, assettree.ErrDuplicateIdentifier)
}

package models

import "time"

// Collection names of the hoa document store.
const (
	CollectionProperties     = "hoa_properties"
	CollectionOwners         = "hoa_owners"
	CollectionAssessments    = "hoa_assessments"
	CollectionCommunications = "hoa_communications"
	CollectionPayments       = "hoa_payments"
	CollectionSales          = "hoa_sales"
	CollectionConfig         = "hoa_config"
)

// ConfigPartition is the fixed partition key of every config document.
const ConfigPartition = "config"

// Property is the hoa_properties document. Its document id equals ParcelID,
// which is also the partition key of every related document.
// Integer flags follow the stored 0/1 convention.
type Property struct {
	ID              string    `json:"id"`
	ParcelID        string    `json:"Parcel_ID"`
	LotNo           string    `json:"LotNo,omitempty"`
	SubDivParcel    string    `json:"SubDivParcel,omitempty"`
	ParcelLocation  string    `json:"Parcel_Location"`
	OwnerID         int       `json:"OwnerID"`
	MailingName     string    `json:"Mailing_Name"`
	OwnerName1      string    `json:"Owner_Name1,omitempty"`
	OwnerName2      string    `json:"Owner_Name2,omitempty"`
	OwnerPhone      string    `json:"Owner_Phone,omitempty"`
	AltAddressLine1 string    `json:"Alt_Address_Line1,omitempty"`
	UseEmail        int       `json:"UseEmail"`
	Comments        string    `json:"Comments,omitempty"`
	LastChangedBy   string    `json:"LastChangedBy,omitempty"`
	LastChangedTs   time.Time `json:"LastChangedTs"`
}

// UsesEmail reports whether the property receives notices by email.
func (p *Property) UsesEmail() bool {
	return p.UseEmail == 1
}

// Owner is one hoa_owners document. A property keeps its full owner history;
// exactly one record per property has CurrentOwner set.
type Owner struct {
	ID               string    `json:"id"`
	ParcelID         string    `json:"Parcel_ID"`
	OwnerID          int       `json:"OwnerID"`
	CurrentOwner     int       `json:"CurrentOwner"`
	OwnerName1       string    `json:"Owner_Name1"`
	OwnerName2       string    `json:"Owner_Name2,omitempty"`
	DatePurchased    string    `json:"DatePurchased,omitempty"`
	MailingName      string    `json:"Mailing_Name"`
	AlternateMailing int       `json:"AlternateMailing"`
	AltAddressLine1  string    `json:"Alt_Address_Line1,omitempty"`
	AltAddressLine2  string    `json:"Alt_Address_Line2,omitempty"`
	AltCity          string    `json:"Alt_City,omitempty"`
	AltState         string    `json:"Alt_State,omitempty"`
	AltZip           string    `json:"Alt_Zip,omitempty"`
	OwnerPhone       string    `json:"Owner_Phone,omitempty"`
	EmailAddr        string    `json:"EmailAddr,omitempty"`
	EmailAddr2       string    `json:"EmailAddr2,omitempty"`
	Comments         string    `json:"Comments,omitempty"`
	LastChangedBy    string    `json:"LastChangedBy,omitempty"`
	LastChangedTs    time.Time `json:"LastChangedTs"`
}

// IsCurrent reports whether this is the property's current owner.
func (o *Owner) IsCurrent() bool {
	return o.CurrentOwner == 1
}

// Sale is a read-only hoa_sales document, keyed by sale date within the property partition.
type Sale struct {
	ID              string    `json:"id"`
	ParcelID        string    `json:"Parcel_ID"`
	SaleDate        string    `json:"SALEDT"`
	OldOwner        string    `json:"OLDOWNER,omitempty"`
	OwnerName1      string    `json:"OWNERNAME1,omitempty"`
	ParcelLocation  string    `json:"PARCELLOCATION,omitempty"`
	MailingName1    string    `json:"MAILINGNAME1,omitempty"`
	WelcomeSent     string    `json:"WelcomeSent,omitempty"`
	CreateTimestamp time.Time `json:"CreateTimestamp"`
}

// ConfigEntry is a name/value pair from hoa_config.
type ConfigEntry struct {
	ID          string `json:"id"`
	ConfigName  string `json:"ConfigName"`
	ConfigDesc  string `json:"ConfigDesc,omitempty"`
	ConfigValue string `json:"ConfigValue"`
}

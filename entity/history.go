package entity

import (
	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// 审计操作类型
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpSoftDelete = "softDelete"
	OpHardDelete = "hardDelete"
	OpVersion    = "version"
	OpRestore    = "restore"
	OpMeta       = "meta"
)

// History 审计记录：某集合中某文档的一次变更
type History struct {
	repository.BaseModel
	CollectionName     string         `json:"collectionName" gorm:"column:collection_name;size:64;index:idx_history_doc" validate:"required" error_msg:"required:collectionName is required"`
	DocumentID         string         `json:"documentId" gorm:"column:document_id;type:varchar(26);index:idx_history_doc" validate:"required,ulid" error_msg:"required:documentId is required|ulid:documentId must be a document id"`
	Operation          string         `json:"operation" gorm:"column:operation;size:16" validate:"required,oneof=create update softDelete hardDelete version restore meta" error_msg:"required:operation is required"`
	ActorID            *string        `json:"actorId" gorm:"column:actor_id;size:64;index"`
	Diff               database.JSONB `json:"diff" gorm:"column:diff"`
	FullDocumentBefore datatypes.JSON `json:"fullDocumentBefore" gorm:"column:full_document_before"`
	FullDocumentAfter  datatypes.JSON `json:"fullDocumentAfter" gorm:"column:full_document_after"`
	Reason             *string        `json:"reason" gorm:"column:reason"`
}

func (History) TableName() string { return "histories" }

func (History) ModelName() string { return "History" }

func (History) Immutable() {}

func (*History) HasAuthorField() bool { return false }

func (*History) DeclaredFields() []Field { return DeclaredOf(History{}) }

func (h *History) Validate() error { return check(h.ModelName(), h) }

func (h *History) Serialize() (map[string]any, error) { return serialize(h) }

package db

import "fmt"

// schemaTemplate defines the catalog tables. The single %d is the embedding dimension.
const schemaTemplate = `
    -- ==========================================================================
    -- ITEM TABLE (catalog clips)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS item SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS file_path ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS embedding ON item TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS section ON item TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS tempo ON item TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS musical_key ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS duration ON item TYPE float;
    DEFINE FIELD IF NOT EXISTS prompt_text ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS arc_name ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source_production ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS vibe_tags ON item TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS mood_keywords ON item TYPE array<string> DEFAULT [];
    -- Usage fields change only when a production is committed
    DEFINE FIELD IF NOT EXISTS times_used ON item TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS last_used_production ON item TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS last_used_at ON item TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS created_at ON item TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS item_section ON item FIELDS section;
    DEFINE INDEX IF NOT EXISTS item_last_used ON item FIELDS last_used_production;
    DEFINE INDEX IF NOT EXISTS item_embedding ON item FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- PRODUCTION TABLE (committed playlists)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS production SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS number ON production TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS title ON production TYPE string;
    DEFINE FIELD IF NOT EXISTS target_minutes ON production TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created_at ON production TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS published_at ON production TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS production_created ON production FIELDS created_at;
`

// SchemaSQL returns the schema initialization SQL for embeddings of the given dimension.
func SchemaSQL(dimension int) string {
	return fmt.Sprintf(schemaTemplate, dimension)
}

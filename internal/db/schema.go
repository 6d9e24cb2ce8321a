package db

// schemaTemplate contains the database schema initialization SQL.
// The single %d placeholder is the HNSW index dimension, which must match
// the configured embedding model.
const schemaTemplate = `
    -- ==========================================================================
    -- TRANSCRIPT TABLE (metadata store)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS transcript SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS course_name ON transcript TYPE string;
    DEFINE FIELD IF NOT EXISTS week_number ON transcript TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS transcript_name ON transcript TYPE string;
    DEFINE FIELD IF NOT EXISTS storage_path ON transcript TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON transcript TYPE string;
    DEFINE FIELD IF NOT EXISTS failed_stage ON transcript TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS batches_indexed ON transcript TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created ON transcript TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS transcript_course ON transcript FIELDS course_name;
    DEFINE INDEX IF NOT EXISTS transcript_course_week ON transcript FIELDS course_name, week_number;

    -- ==========================================================================
    -- CHUNK TABLE (chunk text store)
    -- ==========================================================================
    -- Record id is the deterministic chunk id: <transcript id>-<seq>.
    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS transcript_id ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS seq ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS text ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS char_start ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS char_end ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS overlap_len ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS course_name ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS week_number ON chunk TYPE option<int>;

    DEFINE INDEX IF NOT EXISTS chunk_transcript ON chunk FIELDS transcript_id;

    -- ==========================================================================
    -- EMBEDDING TABLE (vector index)
    -- ==========================================================================
    -- Record id mirrors the chunk id. Kept separate from chunk so the vector
    -- index owns only vectors plus filter metadata.
    DEFINE TABLE IF NOT EXISTS embedding SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS vector ON embedding TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS transcript_id ON embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS course_name ON embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS week_number ON embedding TYPE option<int>;

    DEFINE INDEX IF NOT EXISTS embedding_transcript ON embedding FIELDS transcript_id;
    DEFINE INDEX IF NOT EXISTS embedding_vector ON embedding FIELDS vector HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- BLOB TABLE (raw transcript storage)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS blob SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS path ON blob TYPE string;
    DEFINE FIELD IF NOT EXISTS data ON blob TYPE bytes;
    DEFINE FIELD IF NOT EXISTS created ON blob TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS blob_path ON blob FIELDS path UNIQUE;
`

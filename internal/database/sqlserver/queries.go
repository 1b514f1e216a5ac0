package sqlserver

// SQL Server catalog queries. Identifiers are always bound as named
// parameters (@schema, @table, @sql).
const (
	queryListSchemas = `
		SELECT s.[name]
		FROM sys.schemas AS s
		WHERE s.[schema_id] < 16384
		  AND s.[name] NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
		ORDER BY s.[name];`

	// Row counts come from the heap (index_id 0) or clustered index
	// (index_id 1) partitions of user objects only.
	queryListTables = `
		WITH RowCounts AS (
			SELECT
				OBJECT_SCHEMA_NAME(p.[object_id]) AS [SchemaName],
				OBJECT_NAME(p.[object_id])        AS [TableName],
				SUM(p.[row_count])                AS [ApproxRowCount]
			FROM sys.dm_db_partition_stats AS p
			WHERE p.[index_id] IN (0, 1)
			  AND p.[object_id] > 0
			GROUP BY OBJECT_SCHEMA_NAME(p.[object_id]), OBJECT_NAME(p.[object_id])
		)
		SELECT
			t.TABLE_SCHEMA                    AS [Schema],
			t.TABLE_NAME                      AS [Name],
			CAST(rc.ApproxRowCount AS BIGINT) AS [ApproxRowCount]
		FROM INFORMATION_SCHEMA.TABLES AS t
		LEFT JOIN RowCounts AS rc
			ON rc.SchemaName = t.TABLE_SCHEMA
		   AND rc.TableName  = t.TABLE_NAME
		WHERE t.TABLE_TYPE = 'BASE TABLE'
		  AND t.TABLE_SCHEMA = @schema
		ORDER BY t.TABLE_NAME;`

	queryColumns = `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE
		FROM INFORMATION_SCHEMA.COLUMNS AS c
		WHERE c.TABLE_SCHEMA = @schema AND c.TABLE_NAME = @table
		ORDER BY c.ORDINAL_POSITION;`

	queryPrimaryKey = `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS AS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE AS kcu
			ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
		   AND kcu.CONSTRAINT_NAME   = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		  AND tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		ORDER BY kcu.ORDINAL_POSITION;`

	queryUniqueColumns = `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS AS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE AS kcu
			ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
		   AND kcu.CONSTRAINT_NAME   = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		  AND tc.CONSTRAINT_TYPE = 'UNIQUE'
		ORDER BY kcu.ORDINAL_POSITION;`

	queryForeignKeys = `
		SELECT
			fk.[name]                                     AS [ConstraintName],
			c1.[name]                                     AS [ReferencingColumn],
			OBJECT_SCHEMA_NAME(fk.[referenced_object_id]) AS [ReferencedSchema],
			OBJECT_NAME(fk.[referenced_object_id])        AS [ReferencedTable],
			c2.[name]                                     AS [ReferencedColumn]
		FROM sys.foreign_keys AS fk
		JOIN sys.foreign_key_columns AS fkc
			ON fkc.[constraint_object_id] = fk.[object_id]
		JOIN sys.columns AS c1
			ON c1.[object_id] = fkc.[parent_object_id] AND c1.[column_id] = fkc.[parent_column_id]
		JOIN sys.columns AS c2
			ON c2.[object_id] = fkc.[referenced_object_id] AND c2.[column_id] = fkc.[referenced_column_id]
		WHERE fk.[parent_object_id] = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
		ORDER BY fk.[name], fkc.[constraint_column_id];`

	// queryDescribeResultSet asks the server for the shape of the first
	// result set @sql would produce, without running it. Errors the
	// server hits while describing come back as rows with error_type set.
	queryDescribeResultSet = `
		SELECT
			COUNT(CASE WHEN d.[error_type] IS NULL AND d.[is_hidden] = 0 THEN 1 END) AS [Columns],
			COUNT(d.[error_type])                                                  AS [Errors]
		FROM sys.dm_exec_describe_first_result_set(@sql, NULL, 0) AS d;`
)
